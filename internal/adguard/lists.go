package adguard

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

// List is a domain list on an instance.
type List uint8

// Domain lists.
const (
	ListAllow List = iota + 1
	ListDeny
)

// String implements the fmt.Stringer interface for List.
func (l List) String() string {
	switch l {
	case ListAllow:
		return "allow"
	case ListDeny:
		return "deny"
	default:
		return fmt.Sprintf("list(%d)", uint8(l))
	}
}

// Opposite returns the list a domain has to be removed from before it is added
// to l.
func (l List) Opposite() (o List) {
	if l == ListAllow {
		return ListDeny
	}

	return ListAllow
}

// ListAPI describes the list mutation endpoint of the target server.  The
// endpoint and its parameter names are owned by the server and differ between
// server flavours, hence they are configurable.
type ListAPI struct {
	// Path is the endpoint path relative to the base URI.
	Path string `toml:"path"`

	// ListParam is the query parameter naming the list.
	ListParam string `toml:"list_param"`

	// AddParam and SubParam are the query parameters carrying the domain to
	// add or to remove.
	AddParam string `toml:"add_param"`
	SubParam string `toml:"sub_param"`

	// AllowValue and DenyValue are the values of ListParam for each list.
	AllowValue string `toml:"allow_value"`
	DenyValue  string `toml:"deny_value"`
}

// DefaultListAPI returns the list API with the default endpoint and names.
func DefaultListAPI() (api *ListAPI) {
	return &ListAPI{
		Path:       "control/list",
		ListParam:  "list",
		AddParam:   "add",
		SubParam:   "sub",
		AllowValue: "allow",
		DenyValue:  "deny",
	}
}

// WithDefaults returns a copy of api with empty fields set to their defaults.
func (api ListAPI) WithDefaults() (filled *ListAPI) {
	def := DefaultListAPI()
	filled = &api
	for _, f := range []struct {
		val *string
		def string
	}{
		{&filled.Path, def.Path},
		{&filled.ListParam, def.ListParam},
		{&filled.AddParam, def.AddParam},
		{&filled.SubParam, def.SubParam},
		{&filled.AllowValue, def.AllowValue},
		{&filled.DenyValue, def.DenyValue},
	} {
		if *f.val == "" {
			*f.val = f.def
		}
	}

	return filled
}

// value returns the value of the list parameter for l.
func (api *ListAPI) value(l List) (v string, err error) {
	switch l {
	case ListAllow:
		return api.AllowValue, nil
	case ListDeny:
		return api.DenyValue, nil
	default:
		return "", fmt.Errorf("list: %w: %d", errors.ErrBadEnumValue, uint8(l))
	}
}
