package components

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// levels are the sparkline glyphs from lowest to highest.
const levels = "▁▂▃▄▅▆▇█"

// Sparkline renders data right-aligned in width, one glyph per value.  Values
// are scaled from zero to the largest one.  Only the last width values are
// drawn.
func Sparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	glyphs := []rune(levels)

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(data)))

	top := 0.0
	if len(data) > 0 {
		top = slices.Max(data)
	}

	for _, v := range data {
		i := 0
		if top > 0 && v > 0 {
			i = min(int(v/top*float64(len(glyphs)-1)+0.5), len(glyphs)-1)
		}

		b.WriteRune(glyphs[i])
	}

	return b.String()
}

// FormatLatency returns d in milliseconds, or seconds above one second.
func FormatLatency(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
