// Package status combines the protection status of all configured instances
// into a single value.
package status

import (
	"time"

	"github.com/tonhe/agtoggle/internal/adguard"
)

// Status is the protection status of one instance or of all of them.
type Status uint8

// Status values.  The zero value is Error, so that an uninitialized status
// never claims protection.
const (
	Error Status = iota
	Enabled
	Disabled
)

// String implements the fmt.Stringer interface for Status.
func (s Status) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	default:
		return "error"
	}
}

// InstanceResult is the outcome of a status query to a single instance.
// Exactly one of Info and Err is set.
type InstanceResult struct {
	Info    *adguard.StatusInfo
	Err     error
	Name    string
	Latency time.Duration
}

// Status returns the status of a single instance.
func (r InstanceResult) Status() (s Status) {
	switch {
	case r.Err != nil || r.Info == nil:
		return Error
	case r.Info.ProtectionEnabled:
		return Enabled
	default:
		return Disabled
	}
}

// Combine folds the results of one polling cycle into a single status.  Any
// disabled instance makes the combined status Disabled, otherwise any fault
// makes it Error, otherwise it is Enabled.  The result does not depend on the
// order of results.  An empty slice is Error.
func Combine(results []InstanceResult) (s Status) {
	if len(results) == 0 {
		return Error
	}

	var faulted, disabled bool
	for _, r := range results {
		switch r.Status() {
		case Disabled:
			disabled = true
		case Error:
			faulted = true
		}
	}

	switch {
	case disabled:
		return Disabled
	case faulted:
		return Error
	default:
		return Enabled
	}
}
