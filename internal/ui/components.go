package ui

import (
	"fmt"
	"strings"
)

// renderProgressBar draws a playback position bar using heavy/light rules.
func renderProgressBar(elapsed, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2

	var ratio float64
	if total > 0 {
		ratio = min(1, max(0, elapsed/total))
	}

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100))
}

func spaces(n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat(" ", n)
}
