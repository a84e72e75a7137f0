// Package indicator defines the symbol that summarizes the combined
// protection status and the sinks that display it.
package indicator

import (
	"context"

	"github.com/tonhe/agtoggle/internal/status"
)

// Symbol is the short text shown on the badge.
type Symbol string

// Symbol values.  Unknown is the cleared badge.
const (
	Unknown Symbol = ""
	On      Symbol = "On"
	Off     Symbol = "Off"
	Err     Symbol = "Err"
	Ok      Symbol = "Ok"
)

// Badge colours.
const (
	ColorOn    = "#1ea23d"
	ColorOff   = "#808080"
	ColorOk    = "#4577d7"
	ColorError = "#d0021b"
)

// Color returns the badge background colour for s.
func (s Symbol) Color() (c string) {
	switch s {
	case On:
		return ColorOn
	case Off:
		return ColorOff
	case Ok:
		return ColorOk
	default:
		return ColorError
	}
}

// Valid returns true if s is one of the known symbols.
func (s Symbol) Valid() (ok bool) {
	switch s {
	case Unknown, On, Off, Err, Ok:
		return true
	default:
		return false
	}
}

// FromStatus returns the symbol representing st.
func FromStatus(st status.Status) (s Symbol) {
	switch st {
	case status.Enabled:
		return On
	case status.Disabled:
		return Off
	default:
		return Err
	}
}

// Matches returns true if s already displays st.  Only Off with Disabled and
// On with Enabled match; every other pair, including Err with Error, is
// considered divergent and is rewritten.
func Matches(s Symbol, st status.Status) (ok bool) {
	switch st {
	case status.Enabled:
		return s == On
	case status.Disabled:
		return s == Off
	default:
		return false
	}
}

// Sink displays the indicator symbol and remembers what it displays.
type Sink interface {
	// SetIndicator displays s.
	SetIndicator(ctx context.Context, s Symbol) (err error)

	// Indicator returns the symbol currently displayed.
	Indicator(ctx context.Context) (s Symbol, err error)
}
