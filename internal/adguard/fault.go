package adguard

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

// Kind classifies a failed operation against a single instance.
type Kind uint8

// Fault kinds.
const (
	KindUnknown Kind = iota
	KindConfig
	KindValidation
	KindNetwork
	KindAuth
	KindServer
	KindParse
)

// String implements the fmt.Stringer interface for Kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Fault is the classified failure of a single operation against an instance.
type Fault struct {
	// Err is the underlying cause, if any.
	Err error

	// Instance is the name of the instance the operation was issued to.
	Instance string

	// Body is the trimmed response body for server and parse faults.
	Body string

	// Code is the HTTP status code for auth and server faults.
	Code int

	// Kind is the classification of the fault.
	Kind Kind
}

// type check
var _ error = (*Fault)(nil)

// Error implements the error interface for *Fault.
func (f *Fault) Error() (msg string) {
	msg = fmt.Sprintf("%s fault", f.Kind)
	if f.Instance != "" {
		msg = fmt.Sprintf("instance %q: %s", f.Instance, msg)
	}

	switch f.Kind {
	case KindAuth:
		msg += ": check credentials"
		if f.Code != 0 {
			msg += fmt.Sprintf(" (status %d)", f.Code)
		}
	case KindServer:
		msg += fmt.Sprintf(": status %d", f.Code)
		if f.Body != "" {
			msg += fmt.Sprintf(": %q", f.Body)
		}
	case KindParse:
		if f.Body != "" {
			msg += fmt.Sprintf(": body %q", f.Body)
		}
	}

	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}

	return msg
}

// type check
var _ errors.Wrapper = (*Fault)(nil)

// Unwrap implements the errors.Wrapper interface for *Fault.
func (f *Fault) Unwrap() (unwrapped error) {
	return f.Err
}

// KindOf returns the kind of the first *Fault in err's chain, or KindUnknown.
func KindOf(err error) (k Kind) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}

	return KindUnknown
}

// Sentinel causes for validation and configuration faults.
const (
	ErrNoBaseURI        errors.Error = "base uri is empty"
	ErrNoUsername       errors.Error = "username is empty"
	ErrNoPassword       errors.Error = "password is empty"
	ErrEmptyBody        errors.Error = "empty response from server"
	ErrEmptyDomain      errors.Error = "domain can't be empty"
	ErrNegativeDuration errors.Error = "disable duration is negative"
)

// newFault is a helper that returns a *Fault for inst.
func newFault(inst string, k Kind, err error) (f *Fault) {
	return &Fault{
		Err:      err,
		Instance: inst,
		Kind:     k,
	}
}
