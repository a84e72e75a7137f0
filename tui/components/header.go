package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/internal/status"
	"github.com/tonhe/agtoggle/tui/styles"
)

// RenderHeader renders the top header bar with the app name, the badge, the
// combined status, the current page and the version.
func RenderHeader(
	theme styles.Theme,
	sym indicator.Symbol,
	combined status.Status,
	domain string,
	width int,
	ver string,
) string {
	bg := lipgloss.NewStyle().Background(theme.Base01)

	left := bg.
		Foreground(theme.Base0D).
		Bold(true).
		Render("agtoggle")

	text := string(sym)
	if sym == indicator.Unknown {
		text = "  "
	}
	badge := styles.Badge(sym.Color()).Render(text)

	st := styles.NewStyles(theme).ForStatus(combined).Background(theme.Base01).Render(combined.String())

	if domain == "" {
		domain = "(no page)"
	}
	page := bg.Foreground(theme.Base05).Render(domain)

	versionSeg := bg.Foreground(theme.Base04).Render(ver)

	content := fmt.Sprintf(" %s  %s  %s  |  %s  |  %s ", left, badge, st, page, versionSeg)

	return lipgloss.NewStyle().
		Background(theme.Base01).
		Width(width).
		Render(content)
}
