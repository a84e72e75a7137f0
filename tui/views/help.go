package views

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/agtoggle/tui/keys"
	"github.com/tonhe/agtoggle/tui/styles"
)

// HelpView is the overlay listing every key binding.
type HelpView struct {
	sty     *styles.Styles
	help    help.Model
	width   int
	height  int
	visible bool
}

// NewHelpView creates a hidden HelpView.
func NewHelpView(theme styles.Theme) HelpView {
	h := help.New()
	h.ShowAll = true
	h.FullSeparator = "    "
	h.Styles.FullKey = lipgloss.NewStyle().Foreground(theme.Base0D).Bold(true)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(theme.Base05)
	h.Styles.FullSeparator = lipgloss.NewStyle().Foreground(theme.Base03)

	return HelpView{
		sty:  styles.NewStyles(theme),
		help: h,
	}
}

// Toggle shows or hides the overlay.
func (v *HelpView) Toggle() {
	v.visible = !v.visible
}

// IsVisible returns true if the overlay is shown.
func (v HelpView) IsVisible() bool {
	return v.visible
}

// SetSize sets the area the overlay is centered in.
func (v *HelpView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// View renders the overlay.
func (v HelpView) View() string {
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		v.sty.ModalTitle.Render("Keys"),
		"",
		v.help.View(keys.DefaultKeyMap),
		"",
		v.sty.TableCellDim.Render("[?] close"),
	)

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, v.sty.ModalBorder.Render(body))
}
