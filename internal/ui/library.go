package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/clira/internal/library"
	"github.com/olivier-w/clira/internal/player"
	"github.com/olivier-w/clira/internal/util"
)

const seekDebounce = 250 * time.Millisecond

type recordingItem struct {
	rec library.Recording
}

func (i recordingItem) Title() string { return i.rec.Title }

func (i recordingItem) Description() string {
	desc := ""
	if i.rec.Station != "" {
		desc = i.rec.Station + "  ·  "
	}
	return desc + i.rec.ModTime.Format("Jan 2 15:04") + "  ·  " + util.FormatBytes(i.rec.Size)
}

func (i recordingItem) FilterValue() string { return i.rec.Title + " " + i.rec.Station }

// libraryModel is the saved-recordings screen: a playlist over the recordings
// directory with local file playback and debounced seeking.
type libraryModel struct {
	keys     keyMap
	dir      string
	list     list.Model
	playlist *library.Playlist
	shuffle  ShuffleMode

	player   *player.Player
	meta     player.Metadata
	elapsed  time.Duration
	duration time.Duration
	paused   bool

	// Debounced seek: arrow keys move a preview target immediately, the real
	// seek runs once input settles. seekSeq invalidates superseded previews.
	seekPending  bool
	seekApplying bool
	seekTarget   time.Duration
	seekResume   bool
	seekSeq      int

	status   string
	statusAt time.Time
	width    int
	height   int
}

func newLibraryModel(keys keyMap, dir string) libraryModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(nil, delegate, 80, 20)
	l.Title = "recordings"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = headerStyle

	return libraryModel{
		keys: keys,
		dir:  dir,
		list: l,
	}
}

func (m *libraryModel) setSize(w, h int) {
	m.width = w
	m.list.SetWidth(w)
	if h > 4 {
		m.list.SetHeight(h - 4)
	}
	m.height = h
}

func (m *libraryModel) setStatus(s string) {
	m.status = s
	m.statusAt = time.Now()
}

// wantsKeys reports whether the list filter is capturing input.
func (m libraryModel) wantsKeys() bool {
	return m.list.FilterState() == list.Filtering
}

// setRecordings installs a fresh scan, keeping the cursor on the recording
// that is currently playing when it survived the rescan.
func (m *libraryModel) setRecordings(recs []library.Recording) {
	playingPath := ""
	if m.player != nil {
		if cur := m.playlist.Current(); cur != nil {
			playingPath = cur.Path
		}
	}

	m.playlist = library.NewPlaylist(recs)
	if m.shuffle == ShuffleOn {
		m.playlist.EnableShuffle()
	}
	items := make([]list.Item, len(recs))
	for i, rec := range recs {
		items[i] = recordingItem{rec: rec}
	}
	m.list.SetItems(items)

	if playingPath != "" {
		for i := range recs {
			if recs[i].Path == playingPath {
				m.playlist.SetCurrentIndex(i)
				return
			}
		}
	}
}

// playAt starts playback of the recording at list index i. The app routes
// playRequestMsg here after stopping any other playback.
func (m *libraryModel) playAt(i int) tea.Cmd {
	if m.playlist == nil {
		return nil
	}
	rec := m.playlist.At(i)
	if rec == nil {
		return nil
	}
	m.stopPlayback()
	m.playlist.SetCurrentIndex(i)
	return playFileCmd(*rec)
}

func (m *libraryModel) playCurrent() tea.Cmd {
	cur := m.playlist.Current()
	if cur == nil {
		return nil
	}
	return playFileCmd(*cur)
}

// stopPlayback closes the current file player, if any. The playlist cursor
// is untouched.
func (m *libraryModel) stopPlayback() {
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	m.elapsed = 0
	m.duration = 0
	m.paused = false
	m.seekPending = false
	m.seekApplying = false
}

// beginSeekPreview starts or extends a debounced seek. The preview target
// moves immediately; the actual SeekTo runs after the debounce window so a
// run of arrow presses costs one player seek.
func (m *libraryModel) beginSeekPreview(cur, delta time.Duration, resume bool) tea.Cmd {
	if m.player == nil {
		return nil
	}
	target := cur + delta
	if target < 0 {
		target = 0
	}
	if m.duration > 0 && target > m.duration {
		target = m.duration
	}
	m.seekPending = true
	m.seekTarget = target
	m.seekResume = resume
	m.seekSeq++
	m.elapsed = target
	m.paused = true

	p, seq := m.player, m.seekSeq
	return tea.Tick(seekDebounce, func(time.Time) tea.Msg {
		return seekDebounceMsg{player: p, seq: seq}
	})
}

func applySeekCmd(p *player.Player, seq int, target time.Duration, resume bool) tea.Cmd {
	return func() tea.Msg {
		err := p.SeekTo(target, resume)
		return seekAppliedMsg{player: p, seq: seq, target: target, err: err}
	}
}

func (m libraryModel) handleMsg(msg tea.Msg) (libraryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Select):
			i := m.list.Index()
			if i < 0 {
				return m, nil
			}
			return m, func() tea.Msg { return playRequestMsg{index: i} }

		case key.Matches(msg, m.keys.Pause):
			if m.player == nil {
				return m, nil
			}
			m.player.TogglePause()
			m.paused = m.player.Paused()
			return m, nil

		case key.Matches(msg, m.keys.SeekBack):
			resume := !m.paused
			if m.seekPending {
				resume = m.seekResume
			}
			return m, m.beginSeekPreview(m.elapsed, -5*time.Second, resume)

		case key.Matches(msg, m.keys.SeekFwd):
			resume := !m.paused
			if m.seekPending {
				resume = m.seekResume
			}
			return m, m.beginSeekPreview(m.elapsed, 5*time.Second, resume)

		case key.Matches(msg, m.keys.NextRec):
			if m.player == nil || m.playlist == nil {
				return m, nil
			}
			if !m.playlist.Advance() {
				m.setStatus("End of recordings")
				return m, nil
			}
			m.stopPlayback()
			return m, m.playCurrent()

		case key.Matches(msg, m.keys.PrevRec):
			if m.player == nil || m.playlist == nil {
				return m, nil
			}
			if !m.playlist.Previous() {
				m.setStatus("Start of recordings")
				return m, nil
			}
			m.stopPlayback()
			return m, m.playCurrent()

		case key.Matches(msg, m.keys.Shuffle):
			if m.playlist == nil {
				return m, nil
			}
			m.shuffle = m.shuffle.Toggle()
			if m.shuffle == ShuffleOn {
				m.playlist.EnableShuffle()
			} else {
				m.playlist.DisableShuffle()
			}
			return m, nil

		case key.Matches(msg, m.keys.Rescan):
			return m, scanLibraryCmd(m.dir)
		}

	case tickMsg:
		if m.seekPending {
			// Hold the preview; position reads would snap the bar back.
			m.paused = true
			if m.status != "" && time.Since(m.statusAt) > statusTTL {
				m.status = ""
			}
			return m, nil
		}
		if m.player != nil {
			m.elapsed = m.player.Position()
			m.duration = m.player.Duration()
			m.paused = m.player.Paused()
		}
		if m.status != "" && time.Since(m.statusAt) > statusTTL {
			m.status = ""
		}
		return m, nil

	case libraryScannedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Cannot read recordings: %v", msg.err))
			return m, nil
		}
		m.setRecordings(msg.recs)
		return m, nil

	case playFileDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Cannot play %s: %v", msg.rec.Title, msg.err))
			return m, nil
		}
		m.player = msg.p
		m.meta = msg.meta
		m.elapsed = 0
		m.duration = msg.p.Duration()
		m.paused = false
		m.seekPending = false
		m.seekApplying = false
		return m, watchDone(msg.p)

	case playbackEndedMsg:
		if msg.player == nil || msg.player != m.player {
			return m, nil
		}
		m.stopPlayback()
		if m.playlist != nil && m.playlist.Advance() {
			return m, m.playCurrent()
		}
		return m, nil

	case seekDebounceMsg:
		if msg.player != m.player || msg.seq != m.seekSeq || !m.seekPending || m.seekApplying {
			return m, nil
		}
		m.seekApplying = true
		return m, applySeekCmd(m.player, m.seekSeq, m.seekTarget, m.seekResume)

	case seekAppliedMsg:
		if msg.player != m.player {
			return m, nil
		}
		if msg.seq != m.seekSeq || msg.target != m.seekTarget {
			// A newer preview landed while this seek ran; apply it now.
			return m, applySeekCmd(m.player, m.seekSeq, m.seekTarget, m.seekResume)
		}
		m.seekPending = false
		m.seekApplying = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Seek failed: %v", msg.err))
			return m, nil
		}
		m.elapsed = msg.target
		m.paused = !m.seekResume
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m libraryModel) view() string {
	s := m.list.View() + "\n"

	if m.player == nil {
		if m.status != "" {
			s += "  " + statusStyle.Render(m.status)
		}
		return s
	}

	w := m.width
	if w < 30 {
		w = 50
	}

	title := m.meta.Title
	if cur := m.playlist.Current(); title == "" && cur != nil {
		title = cur.Title
	}

	elapsedStr := util.FormatDuration(m.elapsed)
	durationStr := util.FormatDuration(m.duration)
	barWidth := w - len(elapsedStr) - len(durationStr) - 6
	if barWidth < 10 {
		barWidth = 10
	}
	bar := renderProgressBar(m.elapsed.Seconds(), m.duration.Seconds(), barWidth)
	s += "  " + timeStyle.Render(elapsedStr) + " " + bar + " " + timeStyle.Render(durationStr) + "\n"

	statusIcon := "▶"
	if m.paused {
		statusIcon = "❚❚"
	}
	line := statusIcon + "  " + title
	if icon := m.shuffle.Icon(); icon != "" {
		line += "  " + icon
	}
	s += "  " + statusStyle.Render(line)
	if m.status != "" {
		s += "\n  " + helpStyle.Render(m.status)
	}
	return s
}
