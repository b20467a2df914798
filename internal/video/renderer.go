package video

import (
	"strings"
)

// Renderer converts raw RGB24 frames into terminal strings. When the terminal
// has color it packs two pixel rows per cell row with "▀" (foreground = top
// pixel, background = bottom pixel); without color it falls back to an ASCII
// brightness ramp.
type Renderer struct {
	mode colorMode
	sb   strings.Builder // reused across frames
}

// NewRenderer creates a renderer matched to the current terminal.
func NewRenderer() *Renderer {
	return &Renderer{mode: detectColorMode()}
}

// Render draws an RGB24 buffer of frameW x frameH pixels into outW x outH
// terminal cells. Frame data is 3 bytes per pixel, row-major, top to bottom.
// In color mode each cell row covers two pixel rows.
func (r *Renderer) Render(frame []byte, frameW, frameH, outW, outH int) string {
	if len(frame) < frameW*frameH*3 || frameW <= 0 || frameH <= 0 || outW <= 0 || outH <= 0 {
		return ""
	}

	r.sb.Reset()
	r.sb.Grow(outW * outH * 24) // escape sequences dominate the budget

	if r.mode == colorOff {
		r.renderASCII(frame, frameW, frameH, outW, outH)
	} else {
		r.renderHalfBlock(frame, frameW, frameH, outW, outH)
	}
	return r.sb.String()
}

func (r *Renderer) renderHalfBlock(frame []byte, frameW, frameH, outW, outH int) {
	pixelRows := outH * 2
	var lastFg, lastBg string

	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			srcX := col * frameW / outW

			tr, tg, tb := samplePixel(frame, frameW, srcX, row*2*frameH/pixelRows)
			var br, bg, bb uint8
			if bot := row*2 + 1; bot < pixelRows {
				br, bg, bb = samplePixel(frame, frameW, srcX, bot*frameH/pixelRows)
			}

			if fg := colorSeq(r.mode, tr, tg, tb, false); fg != lastFg {
				r.sb.WriteString(fg)
				lastFg = fg
			}
			if bgc := colorSeq(r.mode, br, bg, bb, true); bgc != lastBg {
				r.sb.WriteString(bgc)
				lastBg = bgc
			}
			r.sb.WriteString("▀")
		}
		r.sb.WriteString(ansiReset)
		lastFg, lastBg = "", ""
		if row < outH-1 {
			r.sb.WriteByte('\n')
		}
	}
}

func (r *Renderer) renderASCII(frame []byte, frameW, frameH, outW, outH int) {
	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			pr, pg, pb := samplePixel(frame, frameW, col*frameW/outW, row*frameH/outH)
			r.sb.WriteByte(brightnessChar(luminance(pr, pg, pb)))
		}
		if row < outH-1 {
			r.sb.WriteByte('\n')
		}
	}
}

func samplePixel(frame []byte, stride, x, y int) (uint8, uint8, uint8) {
	off := (y*stride + x) * 3
	if off+2 >= len(frame) {
		return 0, 0, 0
	}
	return frame[off], frame[off+1], frame[off+2]
}

// luminance is ITU-R BT.601 perceived brightness in integer math.
func luminance(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

// CalcFrameDimensions picks the ffmpeg scale target and the terminal cell
// area for a video, preserving aspect ratio inside the given bounds.
//
// Terminal cells are roughly half as wide as they are tall, and color mode
// packs two pixel rows per cell row, so the pixel grid and the cell grid are
// related but not equal. Returns (outW cells, outH cells, scaleW pixels,
// scaleH pixels); all zero when either side is degenerate.
func CalcFrameDimensions(termW, termH, srcW, srcH int, color bool) (outW, outH, scaleW, scaleH int) {
	if srcW <= 0 || srcH <= 0 || termW <= 0 || termH <= 0 {
		return 0, 0, 0, 0
	}

	aspectSrc := float64(srcW) / float64(srcH)

	if color {
		outW = termW
		pixelH := termH * 2
		if aspectTerm := float64(outW) * 0.5 / float64(pixelH); aspectSrc > aspectTerm {
			// Wider than the viewport: full width, shrink height.
			scaleW = outW
			scaleH = int(float64(outW) * 0.5 / aspectSrc)
			if scaleH > pixelH {
				scaleH = pixelH
			}
			outH = (scaleH + 1) / 2
		} else {
			// Taller than the viewport: full height, shrink width.
			scaleH = pixelH
			scaleW = int(float64(pixelH) * aspectSrc / 0.5)
			if scaleW > outW {
				scaleW = outW
			}
			outH = termH
			outW = scaleW
		}
	} else {
		// ASCII mode draws one pixel row per cell row; the aspect correction
		// doubles width instead.
		outW = termW
		outH = termH
		if aspectTerm := float64(outW) / (float64(outH) * 2.0); aspectSrc > aspectTerm {
			scaleW = outW
			scaleH = int(float64(outW) / aspectSrc / 2.0)
			if scaleH > outH {
				scaleH = outH
			}
			outH = scaleH
		} else {
			scaleH = outH
			scaleW = int(float64(outH) * aspectSrc * 2.0)
			if scaleW > outW {
				scaleW = outW
			}
			outW = scaleW
		}
	}

	if outW < 4 {
		outW = 4
	}
	if outH < 2 {
		outH = 2
	}
	if scaleW < 4 {
		scaleW = 4
	}
	if scaleH < 2 {
		scaleH = 2
	}
	return outW, outH, scaleW, scaleH
}
