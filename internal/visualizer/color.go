package visualizer

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
)

// colorProfile is the terminal's color capability, detected once per process.
type colorProfile uint8

const (
	colorNone colorProfile = iota
	colorANSI16
	colorANSI256
	colorTrueColor
)

type colorRGB struct {
	R, G, B uint8
}

var (
	profileOnce sync.Once
	profile     colorProfile
	seqCache    sync.Map
)

func currentColorProfile() colorProfile {
	profileOnce.Do(func() { profile = sniffColorProfile() })
	return profile
}

func sniffColorProfile() colorProfile {
	if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
		return colorNone
	}
	ct := strings.ToLower(os.Getenv("COLORTERM"))
	if strings.Contains(ct, "truecolor") || strings.Contains(ct, "24bit") {
		return colorTrueColor
	}
	switch term := strings.ToLower(os.Getenv("TERM")); {
	case strings.Contains(term, "256color"):
		return colorANSI256
	case term == "" || term == "dumb":
		return colorNone
	default:
		return colorANSI16
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// heatStops is the bar gradient from cold (low bars) to hot (tall bars).
var heatStops = []colorRGB{
	{18, 22, 64},
	{0, 158, 248},
	{36, 244, 158},
	{252, 224, 96},
	{250, 84, 54},
}

// heatColor maps a level in [0, 1] onto the heat gradient.
func heatColor(t float64) colorRGB {
	t = clamp01(t) * float64(len(heatStops)-1)
	i := int(t)
	if i >= len(heatStops)-1 {
		return heatStops[len(heatStops)-1]
	}
	return mixRGB(heatStops[i], heatStops[i+1], t-float64(i))
}

func mixRGB(a, b colorRGB, t float64) colorRGB {
	return colorRGB{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// rgbFromHSV converts hue/saturation/value in [0, 1] to RGB. Hue wraps.
func rgbFromHSV(h, s, v float64) colorRGB {
	h = h - math.Floor(h)
	s = clamp01(s)
	v = clamp01(v)

	sector := int(h * 6)
	f := h*6 - float64(sector)
	p := v * (1 - s)
	q := v * (1 - f*s)
	u := v * (1 - (1-f)*s)

	var r, g, b float64
	switch sector % 6 {
	case 0:
		r, g, b = v, u, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, u
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = u, p, v
	default:
		r, g, b = v, p, q
	}
	return colorRGB{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255)}
}

// ansiState tracks the last emitted foreground color so runs of same-colored
// cells cost one escape sequence instead of one per cell.
type ansiState struct {
	profile colorProfile
	current uint32
}

const noColorSet = ^uint32(0)

func newANSIState() ansiState {
	return ansiState{profile: currentColorProfile(), current: noColorSet}
}

func (s *ansiState) set(sb *strings.Builder, c colorRGB) {
	if s.profile == colorNone {
		return
	}
	key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if key == s.current {
		return
	}
	sb.WriteString(colorSequence(s.profile, c))
	s.current = key
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.profile == colorNone || s.current == noColorSet {
		return
	}
	sb.WriteString("\x1b[0m")
	s.current = noColorSet
}

// colorSequence builds (and caches) the escape sequence for a color under the
// given profile. The cache is keyed on profile+RGB; visualizer palettes reuse
// a small set of colors so it stays tiny.
func colorSequence(profile colorProfile, c colorRGB) string {
	key := uint32(profile)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}

	var seq string
	switch profile {
	case colorTrueColor:
		seq = fmt.Sprintf("\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	case colorANSI256:
		seq = fmt.Sprintf("\x1b[38;5;%dm", cube216Index(c))
	case colorANSI16:
		seq = fmt.Sprintf("\x1b[%dm", 30+nearestBase16(c))
	}

	seqCache.Store(key, seq)
	return seq
}

// cube216Index maps RGB to the 6x6x6 color cube of the 256-color palette.
func cube216Index(c colorRGB) int {
	r := int(c.R) * 5 / 255
	g := int(c.G) * 5 / 255
	b := int(c.B) * 5 / 255
	return 16 + 36*r + 6*g + b
}

var base16Palette = []colorRGB{
	{0, 0, 0},
	{205, 49, 49},
	{13, 188, 121},
	{229, 229, 16},
	{36, 114, 200},
	{188, 63, 188},
	{17, 168, 205},
	{229, 229, 229},
}

func nearestBase16(c colorRGB) int {
	best, bestDist := 0, math.MaxFloat64
	for i, p := range base16Palette {
		dr := float64(c.R) - float64(p.R)
		dg := float64(c.G) - float64(p.G)
		db := float64(c.B) - float64(p.B)
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			bestDist, best = d, i
		}
	}
	return best
}
