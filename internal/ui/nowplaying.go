package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/clira/internal/player"
	"github.com/olivier-w/clira/internal/station"
	"github.com/olivier-w/clira/internal/util"
	"github.com/olivier-w/clira/internal/visualizer"
)

// nowPlayingModel is the live playback screen: station header, in-stream
// titles, the visualizer, transport state and recording control.
type nowPlayingModel struct {
	keys       keyMap
	player     *player.Player
	station    station.Station
	format     string
	nowTitle   string
	titles     int
	elapsed    time.Duration
	volume     float64
	paused     bool
	connecting bool
	spin       spinner.Model
	errMsg     string

	anim      *visualizer.Animator
	animCfg   visualizer.Config
	animGen   int
	renderers []visualizer.Renderer
	styleIdx  int // len(renderers) means hidden

	capturing    bool
	captureFile  string
	captureStart time.Time
	captureFor   time.Duration
	recDir       string
	status       string
	statusAt     time.Time

	width  int
	height int
}

func newNowPlayingModel(keys keyMap, volume float64, style string, barCount int, recDir string) nowPlayingModel {
	cfg := visualizer.DefaultConfig()
	if barCount > 0 {
		cfg.BarCount = barCount
	}
	anim, err := visualizer.New(cfg)
	if err != nil {
		// Only BarCount deviates from the defaults, and DefaultConfig
		// always validates.
		cfg = visualizer.DefaultConfig()
		anim, _ = visualizer.New(cfg)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	m := nowPlayingModel{
		keys:      keys,
		volume:    volume,
		spin:      s,
		anim:      anim,
		animCfg:   cfg,
		renderers: visualizer.Renderers(),
		recDir:    recDir,
	}
	m.styleIdx = m.styleIndex(style)
	return m
}

func (m *nowPlayingModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m nowPlayingModel) styleIndex(name string) int {
	for i, r := range m.renderers {
		if r.Name() == name {
			return i
		}
	}
	return len(m.renderers)
}

func (m nowPlayingModel) styleName() string {
	if m.styleIdx >= len(m.renderers) {
		return "off"
	}
	return m.renderers[m.styleIdx].Name()
}

func (m nowPlayingModel) animInterval() time.Duration {
	if m.anim.Playing() {
		return m.animCfg.TickInterval
	}
	return m.animCfg.StopTickInterval
}

// syncAnim reconciles the animator with the playback state. It returns a tick
// command only on a state flip; ticks carry a generation so stale ones from
// before the flip are dropped.
func (m *nowPlayingModel) syncAnim() tea.Cmd {
	want := m.player != nil && !m.paused && !m.connecting && m.styleIdx < len(m.renderers)
	if want == m.anim.Playing() {
		return nil
	}
	if want {
		m.anim.Start()
	} else {
		m.anim.Stop()
	}
	m.animGen++
	return animTickCmd(m.animGen, m.animInterval())
}

func (m *nowPlayingModel) setStatus(s string) {
	m.status = s
	m.statusAt = time.Now()
}

// beginConnecting puts the screen into its connecting state while tuneCmd
// resolves and opens the stream.
func (m *nowPlayingModel) beginConnecting(st station.Station) tea.Cmd {
	m.station = st
	m.connecting = true
	m.errMsg = ""
	m.nowTitle = ""
	m.titles = 0
	m.elapsed = 0
	return m.spin.Tick
}

// adopt takes ownership of a freshly opened stream player.
func (m *nowPlayingModel) adopt(st station.Station, res station.Resolution, p *player.Player) tea.Cmd {
	m.player = p
	m.station = st
	m.format = res.Format
	m.nowTitle = ""
	m.titles = 0
	m.elapsed = 0
	m.paused = false
	m.connecting = false
	m.errMsg = ""
	m.capturing = false
	m.captureFile = ""
	p.SetVolume(m.volume)
	cmds := []tea.Cmd{watchDone(p), listenTitles(p)}
	if cmd := m.syncAnim(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *nowPlayingModel) adoptError(st station.Station, err error) {
	m.station = st
	m.connecting = false
	m.errMsg = fmt.Sprintf("Cannot play %s: %v", st.Name, err)
}

// stopPlayback closes the current stream, if any. The visualizer decays out.
func (m *nowPlayingModel) stopPlayback() tea.Cmd {
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	m.capturing = false
	m.captureFile = ""
	m.paused = false
	m.connecting = false
	return m.syncAnim()
}

func (m *nowPlayingModel) setVolume(v float64) {
	m.volume = v
	if m.player != nil {
		m.player.SetVolume(v)
	}
}

// setStyle switches the visualizer renderer by name ("off" hides it).
func (m *nowPlayingModel) setStyle(name string) tea.Cmd {
	m.styleIdx = m.styleIndex(name)
	return m.syncAnim()
}

// setBarCount rebuilds the animator with a new bar count, preserving the
// playing state.
func (m *nowPlayingModel) setBarCount(n int) tea.Cmd {
	if n <= 0 || n == m.animCfg.BarCount {
		return nil
	}
	cfg := m.animCfg
	cfg.BarCount = n
	anim, err := visualizer.New(cfg)
	if err != nil {
		return nil
	}
	playing := m.anim.Playing()
	m.animCfg = cfg
	m.anim = anim
	m.animGen++
	if playing {
		m.anim.Start()
		return animTickCmd(m.animGen, m.animCfg.TickInterval)
	}
	return nil
}

func (m nowPlayingModel) handleMsg(msg tea.Msg) (nowPlayingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Pause):
			if m.player == nil {
				return m, nil
			}
			m.player.TogglePause()
			m.paused = m.player.Paused()
			cmds := []tea.Cmd{tea.SetWindowTitle(windowTitle(m.station.Name, m.paused))}
			if cmd := m.syncAnim(); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, m.keys.VolUp):
			return m.adjustVolume(0.05)

		case key.Matches(msg, m.keys.VolDown):
			return m.adjustVolume(-0.05)

		case key.Matches(msg, m.keys.Record):
			return m.toggleRecord()

		case key.Matches(msg, m.keys.Style):
			m.styleIdx = (m.styleIdx + 1) % (len(m.renderers) + 1)
			name := m.styleName()
			cmds := []tea.Cmd{func() tea.Msg { return styleChangedMsg{name: name} }}
			if cmd := m.syncAnim(); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}

	case tickMsg:
		if m.player != nil {
			m.elapsed = m.player.Position()
			m.paused = m.player.Paused()
		}
		if m.capturing {
			m.captureFor = time.Since(m.captureStart)
		}
		if m.status != "" && time.Since(m.statusAt) > statusTTL {
			m.status = ""
		}
		return m, nil

	case animTickMsg:
		if msg.gen != m.animGen {
			return m, nil
		}
		m.anim.Tick(msg.at)
		if m.anim.Idle() {
			return m, nil
		}
		return m, animTickCmd(m.animGen, m.animInterval())

	case spinner.TickMsg:
		if !m.connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case titleMsg:
		if msg.player != m.player {
			return m, nil
		}
		if msg.title != "" && msg.title != m.nowTitle {
			m.nowTitle = msg.title
			m.titles++
		}
		return m, listenTitles(m.player)

	case titlesClosedMsg:
		return m, nil

	case playbackEndedMsg:
		if msg.player == nil || msg.player != m.player {
			return m, nil
		}
		m.player.Close()
		m.player = nil
		m.paused = false
		m.capturing = false
		m.setStatus("Stream ended")
		return m, m.syncAnim()

	case captureStartedMsg:
		if msg.player != m.player {
			return m, nil
		}
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Recording failed: %v", msg.err))
			return m, nil
		}
		m.capturing = true
		m.captureFile = msg.path
		m.captureStart = time.Now()
		m.captureFor = 0
		m.setStatus("Recording to " + filepath.Base(msg.path))
		return m, nil

	case captureStoppedMsg:
		m.capturing = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Recording failed: %v", msg.err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Saved %s (%s)", filepath.Base(msg.path), util.FormatBytes(msg.bytes)))
		return m, nil
	}

	return m, nil
}

func (m nowPlayingModel) adjustVolume(delta float64) (nowPlayingModel, tea.Cmd) {
	if m.player != nil {
		m.player.AdjustVolume(delta)
		m.volume = m.player.Volume()
	} else {
		m.volume += delta
		if m.volume < 0 {
			m.volume = 0
		}
		if m.volume > 1 {
			m.volume = 1
		}
	}
	v := m.volume
	return m, func() tea.Msg { return volumeChangedMsg{volume: v} }
}

func (m nowPlayingModel) toggleRecord() (nowPlayingModel, tea.Cmd) {
	if m.player == nil {
		m.setStatus("Nothing playing")
		return m, nil
	}
	if m.capturing {
		return m, captureStopCmd(m.player, m.station.Name, m.nowTitle)
	}
	if !m.player.CaptureSupported() {
		m.setStatus("Recording is not supported for this stream")
		return m, nil
	}
	return m, captureStartCmd(m.player, m.recDir, m.station.Name)
}

func (m nowPlayingModel) view(sleep SleepTimer) string {
	w := m.width
	if w < 30 {
		w = 50
	}

	header := "clira"
	if m.station.Name != "" {
		header = m.station.Name
	}

	subtitle := m.station.Genre
	if m.format != "" {
		if subtitle != "" {
			subtitle += "  ·  "
		}
		subtitle += strings.ToUpper(m.format)
	}

	lines := "\n"
	lines += "  " + headerStyle.Render(header) + "\n"
	if subtitle != "" {
		lines += "  " + artistStyle.Render(subtitle) + "\n"
	}
	lines += "\n"

	switch {
	case m.connecting:
		lines += "  " + m.spin.View() + " " + statusStyle.Render("Connecting to "+m.station.Name+"...") + "\n"
		lines += "\n"
	case m.player == nil:
		if m.errMsg != "" {
			lines += "  " + errorStyle.Render(m.errMsg) + "\n"
		} else {
			lines += "  " + statusStyle.Render("Nothing playing. Pick a station to start listening.") + "\n"
		}
		lines += "\n"
	default:
		if m.nowTitle != "" {
			lines += "  " + nowTitleStyle.Render("♪ "+m.nowTitle) + "\n"
			lines += "\n"
		}
	}

	if m.styleIdx < len(m.renderers) && (m.player != nil || !m.anim.Idle()) {
		vh := m.height - 14
		if vh < 4 {
			vh = 4
		}
		if vh > 10 {
			vh = 10
		}
		vw := w - 4
		if vw < 10 {
			vw = 10
		}
		viz := m.renderers[m.styleIdx].View(m.anim.Heights(), vw, vh)
		for _, row := range strings.Split(viz, "\n") {
			lines += "  " + row + "\n"
		}
		lines += "\n"
	}

	if m.player != nil {
		statusIcon := "▶"
		statusText := "playing"
		if m.paused {
			statusIcon = "❚❚"
			statusText = "paused"
		}
		leftText := fmt.Sprintf("%s  %s  %s", statusIcon, statusText, util.FormatClock(m.elapsed))
		if m.titles > 1 {
			leftText += fmt.Sprintf("  %d titles", m.titles)
		}
		if sleep != SleepOff {
			leftText += "  " + sleep.Icon()
		}
		volStr := renderVolumePercent(m.volume)
		gap := w - len(leftText) - len(volStr) - 4
		if gap < 2 {
			gap = 2
		}
		lines += "  " + statusStyle.Render(leftText) + spaces(gap) + statusStyle.Render(volStr) + "\n"

		if m.capturing {
			rec := recordStyle.Render("● REC "+util.FormatClock(m.captureFor)) + "  " + helpStyle.Render(filepath.Base(m.captureFile))
			lines += "  " + rec + "\n"
		}
	}

	if m.status != "" {
		lines += "  " + helpStyle.Render(m.status) + "\n"
	}
	if m.errMsg != "" && m.player != nil {
		lines += "  " + errorStyle.Render(m.errMsg) + "\n"
	}

	return lines
}
