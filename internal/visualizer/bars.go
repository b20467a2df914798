package visualizer

import (
	"strings"
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// Bars renders heights as a row of colored block columns.
type Bars struct{}

// NewBars creates a new bar renderer.
func NewBars() *Bars {
	return &Bars{}
}

func (b *Bars) Name() string { return "bars" }

func (b *Bars) View(heights []float64, width, height int) string {
	if len(heights) == 0 || width < 1 {
		return ""
	}
	if height < 1 {
		height = 1
	}

	cols := len(heights)
	colWidth := (width - 2) / cols
	if colWidth < 1 {
		colWidth = 1
	}
	gap := 1
	if colWidth <= 1 {
		gap = 0
	}

	ansi := newANSIState()
	rows := make([]string, height)
	for row := range height {
		var line strings.Builder
		for c := range cols {
			if c > 0 && gap > 0 {
				line.WriteByte(' ')
			}
			h := clamp01(heights[c])
			level := h * float64(height)
			rowFromBottom := float64(height - 1 - row)
			charIdx := 0
			if level > rowFromBottom+1 {
				charIdx = len(barChars) - 1
			} else if level > rowFromBottom {
				frac := level - rowFromBottom
				charIdx = int(frac * float64(len(barChars)-1))
			}
			ch := barChars[charIdx]
			if charIdx > 0 {
				ansi.set(&line, heatColor(h))
			}
			for range colWidth - gap {
				line.WriteRune(ch)
			}
		}
		ansi.reset(&line)
		rows[row] = line.String()
	}
	return strings.Join(rows, "\n")
}
