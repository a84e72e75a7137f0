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

// Column width constants (minimum widths).
const (
	colName     = 18
	colStatus   = 10
	colVersion  = 10
	colLatency  = 9
	colSparkMin = 12
	colErrorMin = 16
)

// StatusView is the main view: one row per instance with its protection
// status, version, latency and latency trend.
type StatusView struct {
	theme    styles.Theme
	sty      *styles.Styles
	snapshot *engine.Snapshot
	cursor   int
	width    int
	height   int
}

// NewStatusView creates a new StatusView with the given theme.
func NewStatusView(theme styles.Theme) StatusView {
	return StatusView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// Update handles key messages for cursor navigation.
func (v StatusView) Update(msg tea.Msg) (StatusView, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, keys.DefaultKeyMap.Down):
			if v.cursor < v.rowCount()-1 {
				v.cursor++
			}
		}
	}
	return v, nil
}

// SetSnapshot updates the data and clamps the cursor.
func (v *StatusView) SetSnapshot(snap *engine.Snapshot) {
	v.snapshot = snap
	if n := v.rowCount(); v.cursor >= n && n > 0 {
		v.cursor = n - 1
	}
}

// SetSize updates the available dimensions for the view.
func (v *StatusView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Selected returns the instance under the cursor, or nil.
func (v StatusView) Selected() *engine.InstanceStats {
	if v.rowCount() == 0 {
		return nil
	}
	inst := v.snapshot.Instances[v.cursor]
	return &inst
}

func (v StatusView) rowCount() int {
	if v.snapshot == nil {
		return 0
	}
	return len(v.snapshot.Instances)
}

// View renders the instance table.
func (v StatusView) View() string {
	if v.rowCount() == 0 {
		return v.renderEmpty()
	}
	return v.renderTable()
}

// columnWidths splits the space left by the fixed columns between the trend
// and the error columns.
func (v StatusView) columnWidths() (spark, errCol int) {
	rest := v.width - colName - colStatus - colVersion - colLatency
	spark = max(rest/3, colSparkMin)
	errCol = max(rest-spark, colErrorMin)
	return spark, errCol
}

func (v StatusView) renderTable() string {
	wSpark, wErr := v.columnWidths()
	h := v.sty.TableHeader

	lines := []string{
		h.Render(padRight("Instance", colName)) +
			h.Render(padRight("Status", colStatus)) +
			h.Render(padRight("Version", colVersion)) +
			h.Render(padLeft("Latency", colLatency-1)+" ") +
			h.Render(padRight("Trend", wSpark)) +
			h.Render(padRight("Error", wErr)),
	}

	visible := max(v.height-1, 1)
	start := max(v.cursor-visible+1, 0)
	end := min(start+visible, len(v.snapshot.Instances))

	for i := start; i < end; i++ {
		lines = append(lines, v.renderRow(v.snapshot.Instances[i], wSpark, wErr, i == v.cursor))
	}

	return strings.Join(lines, "\n")
}

func (v StatusView) renderRow(inst engine.InstanceStats, wSpark, wErr int, selected bool) string {
	rowStyle := v.sty.TableRow
	if selected {
		rowStyle = v.sty.TableRowSel
	}

	st := v.sty.ForStatus(inst.Status)
	if selected {
		st = st.Background(v.theme.Base02)
	}

	ver := "-"
	if inst.Info != nil && inst.Info.Version != "" {
		ver = inst.Info.Version
	}

	errText := ""
	if inst.PollError != nil {
		errText = inst.PollError.Error()
	}

	spark := v.sty.Latency
	if selected {
		spark = spark.Background(v.theme.Base02)
	}

	return rowStyle.Render(padRight(truncate(inst.Name, colName-1), colName)) +
		st.Render(padRight(inst.Status.String(), colStatus)) +
		rowStyle.Render(padRight(truncate(ver, colVersion-1), colVersion)) +
		rowStyle.Render(padLeft(components.FormatLatency(inst.Latency), colLatency-1)+" ") +
		spark.Render(components.Sparkline(latencyData(inst.History), wSpark)) +
		st.Render(padRight(truncate(errText, wErr-1), wErr))
}

// renderEmpty renders a centered message when there is nothing to show.
func (v StatusView) renderEmpty() string {
	msgStyle := lipgloss.NewStyle().
		Foreground(v.theme.Base04).
		Align(lipgloss.Center)

	text := "Waiting for the first poll..."
	if v.snapshot != nil && v.snapshot.ConfigError != nil {
		text = fmt.Sprintf("No instances: %v", v.snapshot.ConfigError)
	}

	msg := lipgloss.JoinVertical(lipgloss.Center,
		"",
		msgStyle.Render(text),
		"",
		msgStyle.Render("Add one with: agtoggle instance add"),
		"",
	)

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
}

// latencyData returns the latencies of the successful queries in history in
// milliseconds.  Failed queries count as zero.
func latencyData(history *engine.RingBuffer[engine.LatencySample]) []float64 {
	if history == nil {
		return nil
	}

	samples := history.All()
	data := make([]float64, len(samples))
	for i, s := range samples {
		if s.OK {
			data[i] = float64(s.Latency) / float64(time.Millisecond)
		}
	}
	return data
}

// padRight pads s with spaces on the right to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// padLeft pads s with spaces on the left to the given width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// truncate shortens s to maxLen characters, adding an ellipsis if needed.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
