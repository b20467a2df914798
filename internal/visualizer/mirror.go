package visualizer

import (
	"strings"
)

// Mirror renders heights growing out from a center line, hue following the
// column position.
type Mirror struct{}

// NewMirror creates a new mirrored renderer.
func NewMirror() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Name() string { return "mirror" }

func (m *Mirror) View(heights []float64, width, height int) string {
	if len(heights) == 0 || width < 1 {
		return ""
	}
	if height < 3 {
		height = 3
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

	center := float64(height-1) / 2
	half := center
	if half < 1 {
		half = 1
	}

	ansi := newANSIState()
	rows := make([]string, height)
	for row := range height {
		var line strings.Builder
		dist := float64(row) - center
		if dist < 0 {
			dist = -dist
		}
		for c := range cols {
			if c > 0 && gap > 0 {
				line.WriteByte(' ')
			}
			h := clamp01(heights[c])
			reach := h * half
			ch := ' '
			switch {
			case dist <= reach:
				ch = '█'
			case dist <= reach+0.5:
				ch = '▄'
			}
			if ch != ' ' {
				hue := float64(c) / float64(cols)
				ansi.set(&line, rgbFromHSV(0.55+hue*0.35, 0.7, 0.6+0.4*h))
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
