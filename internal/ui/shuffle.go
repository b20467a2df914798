package ui

// ShuffleMode is the recordings playback order toggled with the shuffle key.
type ShuffleMode bool

const (
	ShuffleOff ShuffleMode = false
	ShuffleOn  ShuffleMode = true
)

// Toggle flips the shuffle setting.
func (s ShuffleMode) Toggle() ShuffleMode { return !s }

// Icon returns a status-line indicator, empty when shuffle is off.
func (s ShuffleMode) Icon() string {
	if s == ShuffleOn {
		return "[shuffle]"
	}
	return ""
}
