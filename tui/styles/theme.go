package styles

import (
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a Base16 color scheme.  Only the slots the popup draws with are
// documented.
type Theme struct {
	Name string

	Base00 lipgloss.Color // background
	Base01 lipgloss.Color // bars
	Base02 lipgloss.Color // selected row
	Base03 lipgloss.Color // separators, dim text
	Base04 lipgloss.Color // labels
	Base05 lipgloss.Color // text
	Base06 lipgloss.Color
	Base07 lipgloss.Color
	Base08 lipgloss.Color // error
	Base09 lipgloss.Color
	Base0A lipgloss.Color // disabled
	Base0B lipgloss.Color // enabled
	Base0C lipgloss.Color // latency
	Base0D lipgloss.Color // keys, titles
	Base0E lipgloss.Color
	Base0F lipgloss.Color
}

// DefaultSlug is the theme used when the preferences name an unknown one.
const DefaultSlug = "solarized-dark"

// slugs are the keys of Themes in sorted order.
var slugs = slices.Sorted(maps.Keys(Themes))

// Current is the theme of the running UI.
var Current = Themes[DefaultSlug]

// Use makes t the current theme.
func Use(t Theme) {
	Current = t
}

// Lookup returns the theme with the given slug.
func Lookup(slug string) (t Theme, ok bool) {
	t, ok = Themes[slug]

	return t, ok
}

// Slugs returns the theme slugs in sorted order.
func Slugs() (s []string) {
	return slices.Clone(slugs)
}

// Next returns the theme following slug in sorted order, wrapping around.  An
// unknown slug yields the first theme.
func Next(slug string) (next string, t Theme) {
	i := slices.Index(slugs, slug)
	next = slugs[(i+1)%len(slugs)]

	return next, Themes[next]
}
