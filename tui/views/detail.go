package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/agtoggle/internal/engine"
	"github.com/tonhe/agtoggle/tui/components"
	"github.com/tonhe/agtoggle/tui/keys"
	"github.com/tonhe/agtoggle/tui/styles"
)

// infoPanelHeight is the number of lines of the info panel.
const infoPanelHeight = 10

// DetailView shows one instance: its status information at the top and a
// latency chart below.
type DetailView struct {
	theme  styles.Theme
	sty    *styles.Styles
	inst   *engine.InstanceStats
	width  int
	height int
}

// NewDetailView creates a new DetailView with the given theme.
func NewDetailView(theme styles.Theme) DetailView {
	return DetailView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// SetInstance updates the view with new instance data.
func (v *DetailView) SetInstance(inst *engine.InstanceStats) {
	v.inst = inst
}

// Name returns the name of the shown instance.
func (v DetailView) Name() string {
	if v.inst == nil {
		return ""
	}
	return v.inst.Name
}

// SetSize updates the available dimensions for the view.
func (v *DetailView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update handles key messages.  The third return value is true when the user
// wants to go back.
func (v DetailView) Update(msg tea.Msg) (DetailView, tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.DefaultKeyMap.Escape) {
		return v, nil, true
	}
	return v, nil, false
}

// View renders the info panel and the latency chart.
func (v DetailView) View() string {
	if v.inst == nil {
		msg := lipgloss.NewStyle().
			Foreground(v.theme.Base04).
			Render("No instance selected")
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
	}

	chart := components.RenderChart(
		latencyData(v.inst.History),
		v.width-2,
		max(v.height-infoPanelHeight-2, 4),
		"Latency",
		func(ms float64) string {
			return components.FormatLatency(time.Duration(ms * float64(time.Millisecond)))
		},
	)
	chart = v.sty.Latency.Render(chart)

	help := lipgloss.NewStyle().Foreground(v.theme.Base04).Render(fmt.Sprintf(
		"  %s to go back",
		lipgloss.NewStyle().Foreground(v.theme.Base0D).Bold(true).Render("[esc]"),
	))

	return lipgloss.JoinVertical(lipgloss.Left, v.renderInfo(), "", chart, help)
}

func (v DetailView) renderInfo() string {
	inst := v.inst
	label := lipgloss.NewStyle().Foreground(v.theme.Base04).Width(18)
	value := lipgloss.NewStyle().Foreground(v.theme.Base05)

	st := v.sty.ForStatus(inst.Status)

	ver, running, disabledFor := "-", "-", "-"
	if info := inst.Info; info != nil {
		ver = info.Version
		running = fmt.Sprintf("%t", info.Running)
		if info.ProtectionDisabledDuration > 0 {
			d := time.Duration(info.ProtectionDisabledDuration) * time.Millisecond
			disabledFor = d.Round(time.Second).String()
		}
	}

	lastPoll := "never"
	if !inst.LastPoll.IsZero() {
		lastPoll = inst.LastPoll.Format("15:04:05")
	}

	errText := ""
	if inst.PollError != nil {
		errText = inst.PollError.Error()
	}

	row := func(name string, val string, style lipgloss.Style) string {
		return "  " + label.Render(name+":") + style.Render(val)
	}

	rows := []string{
		"",
		row("Instance", inst.Name, v.sty.InstanceName.Bold(true)),
		row("Status", inst.Status.String(), st),
		row("Version", ver, value),
		row("Running", running, value),
		row("Disabled for", disabledFor, value),
		row("Latency", components.FormatLatency(inst.Latency), value),
		row("Last poll", lastPoll, value),
		row("Error", errText, v.sty.Faulted),
	}

	return strings.Join(rows, "\n")
}
