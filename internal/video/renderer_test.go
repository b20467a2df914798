package video

import "testing"

func TestCalcFrameDimensionsFitsWideSource(t *testing.T) {
	outW, outH, scaleW, scaleH := CalcFrameDimensions(80, 24, 1920, 1080, true)

	if outW != 80 || outH != 11 {
		t.Errorf("expected 80x11 cells, got %dx%d", outW, outH)
	}
	if scaleW != 80 || scaleH != 22 {
		t.Errorf("expected 80x22 pixels, got %dx%d", scaleW, scaleH)
	}
}

func TestCalcFrameDimensionsFitsTallSource(t *testing.T) {
	outW, outH, scaleW, scaleH := CalcFrameDimensions(80, 24, 480, 640, true)

	if outW != 72 || outH != 24 {
		t.Errorf("expected 72x24 cells, got %dx%d", outW, outH)
	}
	if scaleW != 72 || scaleH != 48 {
		t.Errorf("expected 72x48 pixels, got %dx%d", scaleW, scaleH)
	}
}

func TestCalcFrameDimensionsASCIIMode(t *testing.T) {
	outW, outH, scaleW, scaleH := CalcFrameDimensions(80, 24, 1920, 1080, false)

	if outW != 80 || outH != 22 {
		t.Errorf("expected 80x22 cells, got %dx%d", outW, outH)
	}
	if scaleW != 80 || scaleH != 22 {
		t.Errorf("expected 80x22 pixels, got %dx%d", scaleW, scaleH)
	}
}

func TestCalcFrameDimensionsRejectsDegenerateInput(t *testing.T) {
	outW, outH, scaleW, scaleH := CalcFrameDimensions(80, 24, 0, 0, true)
	if outW != 0 || outH != 0 || scaleW != 0 || scaleH != 0 {
		t.Errorf("expected all zero for missing source dimensions, got %d %d %d %d", outW, outH, scaleW, scaleH)
	}

	outW, outH, scaleW, scaleH = CalcFrameDimensions(0, 0, 1920, 1080, true)
	if outW != 0 || outH != 0 || scaleW != 0 || scaleH != 0 {
		t.Errorf("expected all zero for missing terminal dimensions, got %d %d %d %d", outW, outH, scaleW, scaleH)
	}
}

func TestRenderASCIIMapsBrightness(t *testing.T) {
	r := &Renderer{mode: colorOff}

	// 2x2 frame: left column black, right column white.
	frame := []byte{
		0, 0, 0, 255, 255, 255,
		0, 0, 0, 255, 255, 255,
	}

	got := r.Render(frame, 2, 2, 2, 2)
	want := " @\n @"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderHalfBlockPacksTwoRows(t *testing.T) {
	r := &Renderer{mode: colorTrue}

	// 2x2 frame: red top row, blue bottom row.
	frame := []byte{
		255, 0, 0, 255, 0, 0,
		0, 0, 255, 0, 0, 255,
	}

	got := r.Render(frame, 2, 2, 2, 1)
	want := "\x1b[38;2;255;0;0m\x1b[48;2;0;0;255m▀▀" + ansiReset
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderRejectsShortFrame(t *testing.T) {
	r := &Renderer{mode: colorOff}

	if got := r.Render(make([]byte, 3), 2, 2, 2, 2); got != "" {
		t.Errorf("expected empty string for short frame, got %q", got)
	}
}

func TestBrightnessChar(t *testing.T) {
	cases := []struct {
		lum  uint8
		want byte
	}{
		{0, ' '},
		{127, '='},
		{255, '@'},
	}
	for _, c := range cases {
		if got := brightnessChar(c.lum); got != c.want {
			t.Errorf("brightnessChar(%d): expected %q, got %q", c.lum, c.want, got)
		}
	}
}

func TestLuminance(t *testing.T) {
	if got := luminance(255, 255, 255); got != 255 {
		t.Errorf("expected white luminance 255, got %d", got)
	}
	if got := luminance(0, 0, 0); got != 0 {
		t.Errorf("expected black luminance 0, got %d", got)
	}
	if got := luminance(255, 0, 0); got != 76 {
		t.Errorf("expected red luminance 76, got %d", got)
	}
}
