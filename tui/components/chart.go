package components

import (
	"fmt"
	"math"
	"strings"
)

// chartBlocks go from an empty cell to a full one in eighths.
var chartBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// chartLabelWidth is the width of the Y-axis labels.
const chartLabelWidth = 8

// RenderChart renders data as a bar chart, oldest value on the left.  width
// and height include the Y-axis labels and the title row.  label formats the
// Y-axis values.  The Y axis always starts at zero.
func RenderChart(data []float64, width, height int, title string, label func(v float64) string) string {
	width = max(width, chartLabelWidth+2)
	height = max(height, 3)

	cols := width - chartLabelWidth
	rows := height - 1

	if len(data) > cols {
		data = data[len(data)-cols:]
	}

	top := 0.0
	for _, v := range data {
		top = max(top, v)
	}
	if top == 0 {
		top = 1
	}

	lines := make([]string, 0, height)
	lines = append(lines, centerText(title, width))

	pad := strings.Repeat(" ", cols-len(data))
	for r := rows - 1; r >= 0; r-- {
		lo := top * float64(r) / float64(rows)
		hi := top * float64(r+1) / float64(rows)

		axis := strings.Repeat(" ", chartLabelWidth)
		if len(data) > 0 {
			axis = fmt.Sprintf("%*s ", chartLabelWidth-1, label(hi))
			axis = axis[max(0, len(axis)-chartLabelWidth):]
		}

		sb := &strings.Builder{}
		sb.WriteString(axis)
		sb.WriteString(pad)
		for _, v := range data {
			sb.WriteRune(cell(v, lo, hi))
		}

		lines = append(lines, sb.String())
	}

	return strings.Join(lines, "\n")
}

// cell returns the block showing how much of the [lo, hi) range v fills.
func cell(v, lo, hi float64) (r rune) {
	switch {
	case v <= lo:
		return chartBlocks[0]
	case v >= hi:
		return chartBlocks[len(chartBlocks)-1]
	default:
		idx := int(math.Round((v - lo) / (hi - lo) * 8))

		return chartBlocks[min(max(idx, 0), 8)]
	}
}

// centerText centers s within width.
func centerText(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}

	left := (width - len(s)) / 2

	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}
