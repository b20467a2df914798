package video

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
)

// asciiRamp orders characters from darkest to brightest for the no-color
// fallback renderer.
const asciiRamp = " .:-=+*#%@"

const ansiReset = "\x1b[0m"

// colorMode describes how frame pixels are colored.
type colorMode uint8

const (
	colorOff     colorMode = iota // NO_COLOR or dumb terminal
	colorANSI16                   // basic 16-color
	colorANSI256                  // 256-color cube
	colorTrue                     // 24-bit truecolor
)

var (
	detectOnce sync.Once
	termColor  colorMode
)

// detectColorMode sniffs terminal capabilities once per process.
func detectColorMode() colorMode {
	detectOnce.Do(func() {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			termColor = colorOff
			return
		}
		term := strings.ToLower(os.Getenv("TERM"))
		ct := strings.ToLower(os.Getenv("COLORTERM"))
		switch {
		case strings.Contains(ct, "truecolor"), strings.Contains(ct, "24bit"):
			termColor = colorTrue
		case strings.Contains(term, "256color"):
			termColor = colorANSI256
		case term == "dumb":
			termColor = colorOff
		case term == "":
			if runtime.GOOS == "windows" {
				termColor = colorANSI16
			} else {
				termColor = colorOff
			}
		default:
			termColor = colorANSI16
		}
	})
	return termColor
}

// brightnessChar maps a 0-255 luminance onto the ASCII ramp.
func brightnessChar(lum uint8) byte {
	return asciiRamp[int(lum)*(len(asciiRamp)-1)/255]
}

// colorSeq returns the ANSI escape that sets the foreground (or background,
// when bg is true) to the closest representation of the given RGB under the
// active mode. Empty when colors are off.
func colorSeq(mode colorMode, r, g, b uint8, bg bool) string {
	layer := 38
	if bg {
		layer = 48
	}
	switch mode {
	case colorTrue:
		return fmt.Sprintf("\x1b[%d;2;%d;%d;%dm", layer, r, g, b)
	case colorANSI256:
		idx := 16 + 36*(int(r)*5/255) + 6*(int(g)*5/255) + int(b)*5/255
		return fmt.Sprintf("\x1b[%d;5;%dm", layer, idx)
	case colorANSI16:
		code := nearest16(r, g, b)
		base := 30
		if bg {
			base = 40
		}
		if code >= 8 {
			return fmt.Sprintf("\x1b[%dm", base+60+code-8)
		}
		return fmt.Sprintf("\x1b[%dm", base+code)
	default:
		return ""
	}
}

// vgaPalette holds the 16 standard colors, normal then bright.
var vgaPalette = [16][3]uint8{
	{0, 0, 0},
	{205, 49, 49},
	{13, 188, 121},
	{229, 229, 16},
	{36, 114, 200},
	{188, 63, 188},
	{17, 168, 205},
	{229, 229, 229},
	{102, 102, 102},
	{241, 76, 76},
	{35, 209, 139},
	{245, 245, 67},
	{59, 142, 234},
	{214, 112, 214},
	{41, 184, 219},
	{255, 255, 255},
}

func nearest16(r, g, b uint8) int {
	best := 0
	bestDist := 1<<31 - 1
	for i, c := range vgaPalette {
		dr := int(r) - int(c[0])
		dg := int(g) - int(c[1])
		db := int(b) - int(c[2])
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
