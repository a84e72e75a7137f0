package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/agtoggle/tui/keys"
	"github.com/tonhe/agtoggle/tui/styles"
)

// PollInfo is the polling state shown in the status bar.
type PollInfo struct {
	LastPoll  time.Time
	Interval  time.Duration
	Reachable int
	Total     int
}

// RenderStatusBar renders the poll line and the short key help below it.
func RenderStatusBar(theme styles.Theme, info PollInfo, width int) string {
	bar := lipgloss.NewStyle().Background(theme.Base01)
	text := bar.Foreground(theme.Base05)
	sep := bar.Foreground(theme.Base03).Render(" · ")

	last := "never"
	if !info.LastPoll.IsZero() {
		last = info.LastPoll.Format(time.TimeOnly)
	}

	reach := bar.Foreground(theme.Base0B)
	switch {
	case info.Total > 0 && info.Reachable == 0:
		reach = bar.Foreground(theme.Base08)
	case info.Reachable < info.Total:
		reach = bar.Foreground(theme.Base0A)
	}

	poll := text.Render(" every "+info.Interval.String()) + sep +
		text.Render("last "+last) + sep +
		reach.Render(fmt.Sprintf("%d/%d reachable", info.Reachable, info.Total))

	h := help.New()
	h.Width = width - 1
	h.Styles.ShortKey = bar.Foreground(theme.Base0D).Bold(true)
	h.Styles.ShortDesc = bar.Foreground(theme.Base04)
	h.Styles.ShortSeparator = bar.Foreground(theme.Base03)
	h.Styles.Ellipsis = bar.Foreground(theme.Base03)
	hint := bar.Render(" ") + h.ShortHelpView(keys.DefaultKeyMap.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, fill(bar, poll, width), fill(bar, hint, width))
}

// fill pads line with the bar background up to width.
func fill(bar lipgloss.Style, line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		line += bar.Render(strings.Repeat(" ", width-w))
	}

	return line
}
