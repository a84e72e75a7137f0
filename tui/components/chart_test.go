package components

import (
	"strings"
	"testing"
	"time"
)

func fmtLabel(v float64) string {
	return FormatLatency(time.Duration(v * float64(time.Millisecond)))
}

func TestRenderChartDimensions(t *testing.T) {
	out := RenderChart([]float64{1, 2, 3, 4}, 20, 5, "Latency", fmtLabel)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Latency") {
		t.Errorf("expected title in first line, got %q", lines[0])
	}
	for i, l := range lines[1:] {
		if n := len([]rune(l)); n != 20 {
			t.Errorf("line %d: expected width 20, got %d", i+1, n)
		}
	}
}

func TestRenderChartEmpty(t *testing.T) {
	out := RenderChart(nil, 12, 3, "x", fmtLabel)
	for _, l := range strings.Split(out, "\n")[1:] {
		if strings.TrimSpace(l) != "" {
			t.Errorf("expected blank row for empty data, got %q", l)
		}
	}
}

func TestRenderChartPeakFull(t *testing.T) {
	out := RenderChart([]float64{0, 10}, 10, 3, "", fmtLabel)
	lines := strings.Split(out, "\n")
	// The top row holds the full block of the peak in the last column.
	if r := []rune(lines[1]); r[len(r)-1] != '█' {
		t.Errorf("expected full block at peak, got %q", lines[1])
	}
}
