package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/clira/internal/prefs"
)

type settingField int

const (
	settingVolume settingField = iota
	settingStyle
	settingBars
	settingBanner
	settingSleep
	settingCount
)

func (f settingField) label() string {
	switch f {
	case settingVolume:
		return "Volume"
	case settingStyle:
		return "Visualizer style"
	case settingBars:
		return "Visualizer bars"
	case settingBanner:
		return "Banner"
	case settingSleep:
		return "Sleep timer"
	default:
		return ""
	}
}

// settingsModel is a cursor over the settings menu. It holds no setting
// values itself; edits go out as settingChangedMsg and the app applies them
// to the authoritative prefs.
type settingsModel struct {
	keys   keyMap
	cursor settingField
	width  int
	height int
}

func newSettingsModel(keys keyMap) settingsModel {
	return settingsModel{keys: keys}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m settingsModel) handleMsg(msg tea.Msg) (settingsModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < settingCount-1 {
			m.cursor++
		}
		return m, nil
	case "left", "h":
		return m, m.emitChange(-1)
	case "right", "l":
		return m, m.emitChange(1)
	}

	if key.Matches(keyMsg, m.keys.Select) {
		return m, m.emitChange(1)
	}
	return m, nil
}

func (m settingsModel) emitChange(delta int) tea.Cmd {
	field := m.cursor
	return func() tea.Msg { return settingChangedMsg{field: field, delta: delta} }
}

// view renders the menu from the app's authoritative state.
func (m settingsModel) view(p prefs.Prefs, styleName string, sleep SleepTimer, recDir string) string {
	values := map[settingField]string{
		settingVolume: renderVolumePercent(p.Volume),
		settingStyle:  styleName,
		settingBars:   fmt.Sprintf("%d", p.VisualizerBars),
		settingBanner: onOff(p.BannerEnabled),
		settingSleep:  sleep.String(),
	}

	lines := "\n"
	lines += "  " + headerStyle.Render("settings") + "\n"
	lines += "\n"
	for f := settingField(0); f < settingCount; f++ {
		marker := "  "
		label := f.label()
		value := values[f]
		if f == m.cursor {
			marker = "> "
			lines += "  " + titleStyle.Render(marker+padRight(label, 18)+value) + "\n"
		} else {
			lines += "  " + statusStyle.Render(marker+padRight(label, 18)+value) + "\n"
		}
	}
	lines += "\n"
	lines += "  " + helpStyle.Render("Recordings are saved to "+recDir) + "\n"
	lines += "\n"
	lines += "  " + helpStyle.Render("←/→ change  ↑/↓ move") + "\n"
	return lines
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s + " "
	}
	return s + spaces(n-len(s))
}
