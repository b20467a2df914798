package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/clira/internal/history"
	"github.com/olivier-w/clira/internal/library"
	"github.com/olivier-w/clira/internal/player"
	"github.com/olivier-w/clira/internal/prefs"
	"github.com/olivier-w/clira/internal/station"
	"github.com/olivier-w/clira/internal/video"
)

// tickMsg is the 200ms transport heartbeat.
type tickMsg time.Time

// animTickMsg drives one visualizer frame. A tick from a superseded
// generation is discarded without touching the animator.
type animTickMsg struct {
	gen int
	at  time.Time
}

// frameTickMsg drives one TV frame poll, generation-guarded like animTickMsg.
type frameTickMsg struct{ gen int }

// tuneRequestMsg asks the app to play a station.
type tuneRequestMsg struct{ st station.Station }

// tuneDoneMsg delivers the player for a tuned station, or the error.
type tuneDoneMsg struct {
	st  station.Station
	res station.Resolution
	p   *player.Player
	err error
}

// titleMsg carries one in-stream title update. player identifies the session
// so updates from an abandoned stream are dropped.
type titleMsg struct {
	player *player.Player
	title  string
}

// titlesClosedMsg ends the title relay for a closed stream.
type titlesClosedMsg struct{ player *player.Player }

// playbackEndedMsg fires when a player's Done channel closes.
type playbackEndedMsg struct{ player *player.Player }

type captureStartedMsg struct {
	player *player.Player
	path   string
	err    error
}

type captureStoppedMsg struct {
	path  string
	bytes int64
	err   error
}

// playRequestMsg asks the app to play the library recording at index.
type playRequestMsg struct{ index int }

// playFileDoneMsg delivers the local player for a recording.
type playFileDoneMsg struct {
	rec  library.Recording
	p    *player.Player
	meta player.Metadata
	err  error
}

type libraryScannedMsg struct {
	recs []library.Recording
	err  error
}

// seekDebounceMsg fires after the seek preview debounce window.
type seekDebounceMsg struct {
	player *player.Player
	seq    int
}

// seekAppliedMsg reports an applied (or failed) seek.
type seekAppliedMsg struct {
	player *player.Player
	seq    int
	target time.Duration
	err    error
}

type tvStartedMsg struct {
	st      station.Station
	session *video.Session
	err     error
}

// stationResolvedMsg reports the add-station probe outcome.
type stationResolvedMsg struct {
	url string
	res station.Resolution
	err error
}

type importDoneMsg struct {
	path     string
	stations []station.Station
	err      error
}

type recentLoadedMsg struct{ plays []history.Play }

// historyBeganMsg carries the play row ID for later finalizing.
type historyBeganMsg struct{ id int64 }

// persistStationsMsg asks the app to write user stations and favorites to the
// config file.
type persistStationsMsg struct{}

type prefsSavedMsg struct{ err error }

// sleepFiredMsg fires when the sleep timer elapses; stale seqs are ignored.
type sleepFiredMsg struct{ seq int }

// settingChangedMsg is emitted by the settings screen; the app applies it.
type settingChangedMsg struct {
	field settingField
	delta int
}

// styleChangedMsg reports a visualizer style cycle for persistence.
type styleChangedMsg struct{ name string }

// volumeChangedMsg reports a volume adjustment for persistence.
type volumeChangedMsg struct{ volume float64 }

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func animTickCmd(gen int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return animTickMsg{gen: gen, at: t}
	})
}

func frameTickCmd(gen int) tea.Cmd {
	return tea.Tick(video.TickInterval(), func(time.Time) tea.Msg {
		return frameTickMsg{gen: gen}
	})
}

func watchDone(p *player.Player) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return playbackEndedMsg{player: p}
	}
}

// listenTitles relays one title update per command, re-armed by the handler.
// Sources without in-band metadata yield no message.
func listenTitles(p *player.Player) tea.Cmd {
	return func() tea.Msg {
		ch := p.TitleUpdates()
		if ch == nil {
			return nil
		}
		title, ok := <-ch
		if !ok {
			return titlesClosedMsg{player: p}
		}
		return titleMsg{player: p, title: title}
	}
}

func tuneCmd(st station.Station) tea.Cmd {
	return func() tea.Msg {
		res, err := station.Resolve(context.Background(), st.URL)
		if err != nil {
			return tuneDoneMsg{st: st, err: err}
		}
		p, err := player.NewStream(res.URL, res.Format)
		if err != nil {
			return tuneDoneMsg{st: st, res: res, err: err}
		}
		return tuneDoneMsg{st: st, res: res, p: p}
	}
}

func playFileCmd(rec library.Recording) tea.Cmd {
	return func() tea.Msg {
		p, err := player.NewFile(rec.Path)
		if err != nil {
			return playFileDoneMsg{rec: rec, err: err}
		}
		return playFileDoneMsg{rec: rec, p: p, meta: player.ReadMetadata(rec.Path)}
	}
}

func scanLibraryCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		recs, err := library.Scan(dir)
		return libraryScannedMsg{recs: recs, err: err}
	}
}

func startTVCmd(st station.Station, url string, w, h int) tea.Cmd {
	return func() tea.Msg {
		sess, err := video.NewSession(url, w, h)
		return tvStartedMsg{st: st, session: sess, err: err}
	}
}

func resolveStationCmd(url string) tea.Cmd {
	return func() tea.Msg {
		res, err := station.Resolve(context.Background(), url)
		return stationResolvedMsg{url: url, res: res, err: err}
	}
}

func importStationsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		stations, err := station.ImportFile(path)
		return importDoneMsg{path: path, stations: stations, err: err}
	}
}

func captureStartCmd(p *player.Player, dir, stationName string) tea.Cmd {
	return func() tea.Msg {
		path, err := p.StartCapture(dir, stationName)
		return captureStartedMsg{player: p, path: path, err: err}
	}
}

func captureStopCmd(p *player.Player, stationName, title string) tea.Cmd {
	return func() tea.Msg {
		path, n, err := p.StopCapture()
		if err == nil {
			// Best effort; an untagged recording is still a recording.
			_ = player.TagRecording(path, stationName, title)
		}
		return captureStoppedMsg{path: path, bytes: n, err: err}
	}
}

func historyBeginCmd(log *history.Store, st station.Station) tea.Cmd {
	return func() tea.Msg {
		id, err := log.Begin(st.ID, st.Name, time.Now())
		if err != nil {
			return nil
		}
		return historyBeganMsg{id: id}
	}
}

func historyFinishCmd(log *history.Store, id int64, listened time.Duration, titles int) tea.Cmd {
	return func() tea.Msg {
		log.Finish(id, listened, titles)
		return nil
	}
}

func loadRecentCmd(log *history.Store) tea.Cmd {
	return func() tea.Msg {
		plays, err := log.Recent(8)
		if err != nil {
			return nil
		}
		return recentLoadedMsg{plays: plays}
	}
}

func persistStations() tea.Cmd {
	return func() tea.Msg { return persistStationsMsg{} }
}

func savePrefsCmd(p prefs.Prefs, path string) tea.Cmd {
	return func() tea.Msg {
		return prefsSavedMsg{err: p.Save(path)}
	}
}

func sleepCmd(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return sleepFiredMsg{seq: seq}
	})
}
