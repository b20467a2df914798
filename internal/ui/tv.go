package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/clira/internal/station"
	"github.com/olivier-w/clira/internal/video"
)

// tvModel renders video stations as terminal frames. Audio runs through the
// regular stream player; this screen only owns the ffmpeg video session.
// Frame polls carry a generation so ticks from a stopped session are dropped.
type tvModel struct {
	session  *video.Session
	station  station.Station
	starting bool
	errMsg   string
	frame    string
	gen      int
	width    int
	height   int
}

func newTVModel() tvModel {
	return tvModel{}
}

func (m *tvModel) setSize(w, h int) {
	m.width = w
	m.height = h
	if m.session == nil {
		return
	}
	if err := m.session.Resize(m.frameWidth(), m.frameHeight()); err != nil {
		m.errMsg = fmt.Sprintf("Video resize failed: %v", err)
	}
}

// frameWidth and frameHeight are the cells available to the picture after
// the header and status rows.
func (m tvModel) frameWidth() int {
	w := m.width - 4
	if w < 8 {
		w = 8
	}
	return w
}

func (m tvModel) frameHeight() int {
	h := m.height - 5
	if h < 4 {
		h = 4
	}
	return h
}

// start opens a video session for the station. The caller has already tuned
// the audio stream.
func (m *tvModel) start(st station.Station, url string) tea.Cmd {
	m.stop()
	m.station = st
	m.errMsg = ""
	if !video.Available() {
		m.errMsg = "ffmpeg not found. TV stations need ffmpeg installed."
		return nil
	}
	m.starting = true
	return startTVCmd(st, url, m.frameWidth(), m.frameHeight())
}

// stop tears down the session and invalidates in-flight frame ticks.
func (m *tvModel) stop() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	m.gen++
	m.frame = ""
	m.starting = false
}

func (m tvModel) handleMsg(msg tea.Msg) (tvModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tvStartedMsg:
		m.starting = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Cannot open video: %v", msg.err)
			return m, nil
		}
		if m.station.ID != msg.st.ID {
			// The user tuned away while ffmpeg was starting.
			msg.session.Close()
			return m, nil
		}
		m.session = msg.session
		m.gen++
		m.frame = ""
		return m, frameTickCmd(m.gen)

	case frameTickMsg:
		if msg.gen != m.gen || m.session == nil {
			return m, nil
		}
		if f, ok := m.session.Frame(); ok {
			m.frame = f
		}
		if err := m.session.Err(); err != nil {
			m.errMsg = fmt.Sprintf("Video stopped: %v", err)
			m.session.Close()
			m.session = nil
			return m, nil
		}
		return m, frameTickCmd(m.gen)
	}

	return m, nil
}

func (m tvModel) view() string {
	header := "TV"
	if m.station.Name != "" {
		header = m.station.Name + "  [tv]"
	}

	lines := "\n"
	lines += "  " + headerStyle.Render(header) + "\n"
	lines += "\n"

	switch {
	case m.starting:
		lines += "  " + statusStyle.Render("Tuning video...") + "\n"
	case m.session == nil && m.errMsg != "":
		lines += "  " + errorStyle.Render(m.errMsg) + "\n"
	case m.session == nil:
		lines += "  " + statusStyle.Render("No TV station tuned. Pick one marked [tv] on the stations tab.") + "\n"
	case m.frame == "":
		lines += "  " + statusStyle.Render("Waiting for the first frame...") + "\n"
	default:
		for _, row := range strings.Split(m.frame, "\n") {
			lines += "  " + row + "\n"
		}
		if m.errMsg != "" {
			lines += "  " + errorStyle.Render(m.errMsg) + "\n"
		}
	}

	return lines
}
