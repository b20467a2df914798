package ui

import "time"

// SleepTimer is the auto-stop delay cycled with the sleep key.
type SleepTimer int

const (
	SleepOff SleepTimer = iota
	Sleep15
	Sleep30
	Sleep60
)

// Next cycles to the next sleep setting.
func (s SleepTimer) Next() SleepTimer {
	switch s {
	case SleepOff:
		return Sleep15
	case Sleep15:
		return Sleep30
	case Sleep30:
		return Sleep60
	default:
		return SleepOff
	}
}

// Duration returns the delay before playback stops, zero when off.
func (s SleepTimer) Duration() time.Duration {
	switch s {
	case Sleep15:
		return 15 * time.Minute
	case Sleep30:
		return 30 * time.Minute
	case Sleep60:
		return 60 * time.Minute
	default:
		return 0
	}
}

// String returns the name of the sleep setting.
func (s SleepTimer) String() string {
	switch s {
	case Sleep15:
		return "15 min"
	case Sleep30:
		return "30 min"
	case Sleep60:
		return "60 min"
	default:
		return "off"
	}
}

// Icon returns a visual indicator for an armed sleep timer.
func (s SleepTimer) Icon() string {
	if s == SleepOff {
		return ""
	}
	return "[sleep " + s.String() + "]"
}
