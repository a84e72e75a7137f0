package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/agtoggle/internal/status"
)

// Styles are the lipgloss styles of one theme.
type Styles struct {
	TableHeader  lipgloss.Style
	TableRow     lipgloss.Style
	TableRowSel  lipgloss.Style
	TableCellDim lipgloss.Style
	InstanceName lipgloss.Style

	Enabled  lipgloss.Style
	Disabled lipgloss.Style
	Faulted  lipgloss.Style
	Latency  lipgloss.Style

	Message      lipgloss.Style
	MessageError lipgloss.Style

	ModalBorder lipgloss.Style
	ModalTitle  lipgloss.Style

	PromptLabel  lipgloss.Style
	PromptInput  lipgloss.Style
	PromptCursor lipgloss.Style
}

// NewStyles returns the styles of theme.
func NewStyles(theme Theme) *Styles {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		TableHeader:  fg(theme.Base0D).Bold(true),
		TableRow:     fg(theme.Base05),
		TableRowSel:  fg(theme.Base05).Background(theme.Base02),
		TableCellDim: fg(theme.Base03),
		InstanceName: fg(theme.Base0D),

		Enabled:  fg(theme.Base0B),
		Disabled: fg(theme.Base0A),
		Faulted:  fg(theme.Base08),
		Latency:  fg(theme.Base0C),

		Message:      fg(theme.Base0C),
		MessageError: fg(theme.Base08).Bold(true),

		ModalBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Base0D).
			BorderBackground(theme.Base00).
			Background(theme.Base00).
			Padding(1, 2),
		ModalTitle: fg(theme.Base0D).Bold(true),

		PromptLabel:  fg(theme.Base04),
		PromptInput:  fg(theme.Base06).Background(theme.Base02),
		PromptCursor: fg(theme.Base0B),
	}
}

// ForStatus returns the style an instance or combined status is drawn with.
func (s *Styles) ForStatus(st status.Status) (style lipgloss.Style) {
	switch st {
	case status.Enabled:
		return s.Enabled
	case status.Disabled:
		return s.Disabled
	default:
		return s.Faulted
	}
}

// Badge returns the style of the badge with the given background colour.  The
// text is always white, as on the toolbar badge.
func Badge(bg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color(bg)).
		Bold(true).
		Padding(0, 1)
}
