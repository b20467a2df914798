package visualizer

// Renderer draws a row of bar heights as terminal art. Heights are levels in
// [0, 1]; a full-height bar is 1.0.
type Renderer interface {
	Name() string
	View(heights []float64, width, height int) string
}

// Renderers returns all available bar renderers.
func Renderers() []Renderer {
	return []Renderer{
		NewBars(),
		NewMirror(),
	}
}
