package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/clira/internal/banner"
	"github.com/olivier-w/clira/internal/history"
	"github.com/olivier-w/clira/internal/prefs"
	"github.com/olivier-w/clira/internal/station"
)

// Tab identifies one of the app screens.
type Tab int

const (
	TabStations Tab = iota
	TabNowPlaying
	TabLibrary
	TabTV
	TabSettings
	tabCount
)

func (t Tab) title() string {
	switch t {
	case TabStations:
		return "stations"
	case TabNowPlaying:
		return "playing"
	case TabLibrary:
		return "library"
	case TabTV:
		return "tv"
	case TabSettings:
		return "settings"
	default:
		return ""
	}
}

type dirtyFlag uint8

const (
	dirtyTabs dirtyFlag = 1 << iota
	dirtyBody
	dirtyFooter
)

const bannerInterval = 30 * time.Second

// Options configures the app.
type Options struct {
	Prefs          prefs.Prefs
	PrefsPath      string
	Directory      *station.Directory
	Log            *history.Store // nil disables listening history
	RecordingsDir  string
	InitialStation *station.Station
}

// App is the root Bubbletea model: a tab bar over the five screens plus the
// global wiring for exclusive playback, prefs and listening history. The tab
// bar, body and footer render into caches rebuilt in Update; View is pure
// assembly.
type App struct {
	keys      keyMap
	prefs     prefs.Prefs
	prefsPath string
	directory *station.Directory
	log       *history.Store
	rotator   *banner.Rotator
	recDir    string
	initial   *station.Station

	tab        Tab
	stations   stationsModel
	nowPlaying nowPlayingModel
	library    libraryModel
	tv         tvModel
	settings   settingsModel

	sleep    SleepTimer
	sleepSeq int

	// playID tracks the open history row for the current live station.
	playID    int64
	playStart time.Time

	banner   banner.Banner
	width    int
	height   int
	quitting bool

	tabCache    string
	bodyCache   string
	footerCache string
	dirty       dirtyFlag
}

// New builds the app from loaded prefs and an opened station directory.
func New(opts Options) App {
	keys := defaultKeyMap()
	a := App{
		keys:      keys,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		directory: opts.Directory,
		log:       opts.Log,
		recDir:    opts.RecordingsDir,
		initial:   opts.InitialStation,
		stations:  newStationsModel(keys, opts.Directory),
		nowPlaying: newNowPlayingModel(
			keys, opts.Prefs.Volume, opts.Prefs.VisualizerStyle, opts.Prefs.VisualizerBars, opts.RecordingsDir),
		library:  newLibraryModel(keys, opts.RecordingsDir),
		tv:       newTVModel(),
		settings: newSettingsModel(keys),
		dirty:    dirtyTabs | dirtyBody | dirtyFooter,
	}
	if opts.Prefs.BannerEnabled {
		a.rotator = newBannerRotator(opts.Directory, opts.Log)
	}
	a.stations.selectStation(opts.Prefs.LastStationID)
	return a
}

func newBannerRotator(dir *station.Directory, log *history.Store) *banner.Rotator {
	providers := []banner.Provider{banner.NewPromos(dir.Promos)}
	if log != nil {
		providers = append(providers, banner.NewListeningStats(log, nil))
	}
	providers = append(providers, banner.NewTips())
	return banner.NewRotator(bannerInterval, providers...)
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), scanLibraryCmd(a.recDir), tea.SetWindowTitle("clira")}
	if a.log != nil {
		cmds = append(cmds, loadRecentCmd(a.log))
	}
	if a.initial != nil {
		st := *a.initial
		cmds = append(cmds, func() tea.Msg { return tuneRequestMsg{st: st} })
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.handleMsg(msg)
	next.rebuildCaches()
	return next, cmd
}

func (a App) handleMsg(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		bw, bh := msg.Width, msg.Height-3
		a.stations.setSize(bw, bh)
		a.nowPlaying.setSize(bw, bh)
		a.library.setSize(bw, bh)
		a.tv.setSize(bw, bh)
		a.settings.setSize(bw, bh)
		a.dirty |= dirtyTabs | dirtyBody | dirtyFooter
		return a, nil

	case tickMsg:
		var cmds []tea.Cmd
		if a.rotator != nil {
			if b, ok := a.rotator.Refresh(time.Time(msg)); ok {
				a.banner = b
				a.dirty |= dirtyFooter
			}
		}
		var cmd tea.Cmd
		a.stations, cmd = a.stations.update(msg)
		cmds = append(cmds, cmd)
		a.nowPlaying, cmd = a.nowPlaying.handleMsg(msg)
		cmds = append(cmds, cmd)
		a.library, cmd = a.library.handleMsg(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, tickCmd())
		a.dirty |= dirtyBody
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		// Spinner ticks carry IDs; each model ignores foreign ones.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.stations, cmd = a.stations.update(msg)
		cmds = append(cmds, cmd)
		a.nowPlaying, cmd = a.nowPlaying.handleMsg(msg)
		cmds = append(cmds, cmd)
		a.dirty |= dirtyBody
		return a, tea.Batch(cmds...)

	case tuneRequestMsg:
		return a.tune(msg.st)

	case tuneDoneMsg:
		return a.tuneDone(msg)

	case playRequestMsg:
		cmds := a.stopStream()
		if cmd := a.library.playAt(msg.index); cmd != nil {
			cmds = append(cmds, cmd)
		}
		a.dirty |= dirtyBody | dirtyFooter
		return a, tea.Batch(cmds...)

	case playbackEndedMsg:
		var cmds []tea.Cmd
		if msg.player != nil && msg.player == a.nowPlaying.player {
			cmds = append(cmds, a.finishHistory()...)
		}
		var cmd tea.Cmd
		a.nowPlaying, cmd = a.nowPlaying.handleMsg(msg)
		cmds = append(cmds, cmd)
		a.library, cmd = a.library.handleMsg(msg)
		cmds = append(cmds, cmd)
		a.dirty |= dirtyBody | dirtyFooter
		return a, tea.Batch(cmds...)

	case animTickMsg, titleMsg, titlesClosedMsg, captureStartedMsg, captureStoppedMsg:
		var cmd tea.Cmd
		a.nowPlaying, cmd = a.nowPlaying.handleMsg(msg)
		a.dirty |= dirtyBody | dirtyFooter
		return a, cmd

	case tvStartedMsg, frameTickMsg:
		var cmd tea.Cmd
		a.tv, cmd = a.tv.handleMsg(msg)
		a.dirty |= dirtyBody
		return a, cmd

	case stationResolvedMsg, importDoneMsg:
		var cmd tea.Cmd
		a.stations, cmd = a.stations.update(msg)
		a.dirty |= dirtyBody
		return a, cmd

	case libraryScannedMsg, playFileDoneMsg, seekDebounceMsg, seekAppliedMsg:
		var cmd tea.Cmd
		a.library, cmd = a.library.handleMsg(msg)
		a.dirty |= dirtyBody
		return a, cmd

	case recentLoadedMsg:
		a.stations.setLastPlays(msg.plays)
		a.dirty |= dirtyBody
		return a, nil

	case historyBeganMsg:
		a.playID = msg.id
		if a.log != nil {
			return a, loadRecentCmd(a.log)
		}
		return a, nil

	case persistStationsMsg:
		return a, a.saveCmd()

	case volumeChangedMsg:
		a.prefs.Volume = msg.volume
		a.dirty |= dirtyBody
		return a, nil

	case styleChangedMsg:
		a.prefs.VisualizerStyle = msg.name
		a.dirty |= dirtyBody
		return a, a.saveCmd()

	case settingChangedMsg:
		return a.applySetting(msg)

	case sleepFiredMsg:
		if msg.seq != a.sleepSeq || a.sleep == SleepOff {
			return a, nil
		}
		a.sleep = SleepOff
		cmds := a.stopStream()
		a.library.stopPlayback()
		a.dirty |= dirtyBody | dirtyFooter
		return a, tea.Batch(cmds...)

	case prefsSavedMsg:
		if msg.err != nil {
			a.nowPlaying.setStatus(fmt.Sprintf("Cannot save settings: %v", msg.err))
			a.dirty |= dirtyBody
		}
		return a, nil
	}

	// Everything else (cursor blinks, list internals) goes to the active
	// screen.
	return a.routeToActive(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (App, tea.Cmd) {
	// Text entry and list filtering swallow global keys.
	if a.tab == TabStations && a.stations.wantsKeys() {
		var cmd tea.Cmd
		a.stations, cmd = a.stations.update(msg)
		a.dirty |= dirtyBody
		return a, cmd
	}
	if a.tab == TabLibrary && a.library.wantsKeys() {
		var cmd tea.Cmd
		a.library, cmd = a.library.handleMsg(msg)
		a.dirty |= dirtyBody
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		a.shutdown()
		return a, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case key.Matches(msg, a.keys.NextTab):
		a.tab = (a.tab + 1) % tabCount
		a.dirty |= dirtyTabs | dirtyBody | dirtyFooter
		return a, nil

	case key.Matches(msg, a.keys.PrevTab):
		a.tab = (a.tab + tabCount - 1) % tabCount
		a.dirty |= dirtyTabs | dirtyBody | dirtyFooter
		return a, nil

	case key.Matches(msg, a.keys.Sleep):
		a.sleep = a.sleep.Next()
		a.sleepSeq++
		a.dirty |= dirtyBody
		if a.sleep == SleepOff {
			return a, nil
		}
		return a, sleepCmd(a.sleepSeq, a.sleep.Duration())
	}

	switch msg.String() {
	case "1", "2", "3", "4", "5":
		a.tab = Tab(msg.String()[0] - '1')
		a.dirty |= dirtyTabs | dirtyBody | dirtyFooter
		return a, nil
	}

	return a.routeToActive(msg)
}

func (a App) routeToActive(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch a.tab {
	case TabStations:
		a.stations, cmd = a.stations.update(msg)
	case TabNowPlaying:
		a.nowPlaying, cmd = a.nowPlaying.handleMsg(msg)
	case TabLibrary:
		a.library, cmd = a.library.handleMsg(msg)
	case TabTV:
		// Transport keys act on the audio stream under the picture.
		a.nowPlaying, cmd = a.nowPlaying.handleMsg(msg)
	case TabSettings:
		a.settings, cmd = a.settings.handleMsg(msg)
	}
	a.dirty |= dirtyBody
	return a, cmd
}

// tune switches live playback to a station: stop everything, open the
// stream, and land on the right tab.
func (a App) tune(st station.Station) (App, tea.Cmd) {
	cmds := a.stopStream()
	a.library.stopPlayback()
	a.prefs.LastStationID = st.ID
	if st.Video {
		a.tab = TabTV
	} else {
		a.tab = TabNowPlaying
	}
	cmds = append(cmds, a.nowPlaying.beginConnecting(st), tuneCmd(st), a.saveCmd())
	a.dirty |= dirtyTabs | dirtyBody | dirtyFooter
	return a, tea.Batch(cmds...)
}

func (a App) tuneDone(msg tuneDoneMsg) (App, tea.Cmd) {
	if !a.nowPlaying.connecting || a.nowPlaying.station.ID != msg.st.ID {
		// The user tuned elsewhere while this stream was opening.
		if msg.p != nil {
			msg.p.Close()
		}
		return a, nil
	}
	if msg.err != nil {
		a.nowPlaying.adoptError(msg.st, msg.err)
		a.dirty |= dirtyBody | dirtyFooter
		return a, nil
	}

	cmds := []tea.Cmd{
		a.nowPlaying.adopt(msg.st, msg.res, msg.p),
		tea.SetWindowTitle(windowTitle(msg.st.Name, false)),
	}
	if msg.st.Video {
		if cmd := a.tv.start(msg.st, msg.res.URL); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if a.log != nil {
		cmds = append(cmds, historyBeginCmd(a.log, msg.st))
	}
	a.playStart = time.Now()
	a.dirty |= dirtyBody | dirtyFooter
	return a, tea.Batch(cmds...)
}

// stopStream stops live playback (audio and video) and finalizes the history
// row. The library player is untouched.
func (a *App) stopStream() []tea.Cmd {
	cmds := a.finishHistory()
	if cmd := a.nowPlaying.stopPlayback(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	a.tv.stop()
	return cmds
}

func (a *App) finishHistory() []tea.Cmd {
	if a.playID == 0 || a.log == nil {
		return nil
	}
	cmd := historyFinishCmd(a.log, a.playID, time.Since(a.playStart), a.nowPlaying.titles)
	a.playID = 0
	return []tea.Cmd{cmd}
}

func (a App) applySetting(msg settingChangedMsg) (App, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg.field {
	case settingVolume:
		v := a.prefs.Volume + 0.05*float64(msg.delta)
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		a.prefs.Volume = v
		a.nowPlaying.setVolume(v)
		if a.library.player != nil {
			a.library.player.SetVolume(v)
		}

	case settingStyle:
		name := a.cycleStyle(msg.delta)
		a.prefs.VisualizerStyle = name
		if cmd := a.nowPlaying.setStyle(name); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case settingBars:
		n := a.prefs.VisualizerBars + 5*msg.delta
		if n < 10 {
			n = 10
		}
		if n > 100 {
			n = 100
		}
		a.prefs.VisualizerBars = n
		if cmd := a.nowPlaying.setBarCount(n); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case settingBanner:
		a.prefs.BannerEnabled = !a.prefs.BannerEnabled
		if a.prefs.BannerEnabled {
			a.rotator = newBannerRotator(a.directory, a.log)
		} else {
			a.rotator = nil
			a.banner = banner.Banner{}
		}
		a.dirty |= dirtyFooter

	case settingSleep:
		a.sleep = a.sleep.Next()
		a.sleepSeq++
		if a.sleep != SleepOff {
			cmds = append(cmds, sleepCmd(a.sleepSeq, a.sleep.Duration()))
		}
	}

	a.dirty |= dirtyBody
	cmds = append(cmds, a.saveCmd())
	return a, tea.Batch(cmds...)
}

// cycleStyle steps through the renderer names plus "off".
func (a App) cycleStyle(delta int) string {
	names := make([]string, 0, len(a.nowPlaying.renderers)+1)
	for _, r := range a.nowPlaying.renderers {
		names = append(names, r.Name())
	}
	names = append(names, "off")
	cur := 0
	for i, n := range names {
		if n == a.nowPlaying.styleName() {
			cur = i
			break
		}
	}
	return names[((cur+delta)%len(names)+len(names))%len(names)]
}

// syncPrefs pulls the live mutable state into prefs before a save.
func (a *App) syncPrefs() {
	a.prefs.Stations = a.directory.UserStations()
	a.prefs.FavoriteIDs = a.directory.FavoriteIDs()
	a.prefs.Volume = a.nowPlaying.volume
	a.prefs.VisualizerStyle = a.nowPlaying.styleName()
}

func (a *App) saveCmd() tea.Cmd {
	a.syncPrefs()
	return savePrefsCmd(a.prefs, a.prefsPath)
}

// shutdown runs the synchronous teardown before quit: close players, finish
// the history row and write prefs.
func (a *App) shutdown() {
	if a.playID != 0 && a.log != nil {
		_ = a.log.Finish(a.playID, time.Since(a.playStart), a.nowPlaying.titles)
		a.playID = 0
	}
	a.nowPlaying.stopPlayback()
	a.tv.stop()
	a.library.stopPlayback()
	a.syncPrefs()
	_ = a.prefs.Save(a.prefsPath)
}

func (a *App) rebuildCaches() {
	if a.dirty == 0 {
		return
	}
	if a.dirty&dirtyTabs != 0 {
		a.tabCache = a.renderTabs()
	}
	if a.dirty&dirtyBody != 0 {
		a.bodyCache = a.renderBody()
	}
	if a.dirty&dirtyFooter != 0 {
		a.footerCache = a.renderFooter()
	}
	a.dirty = 0
}

func (a App) renderTabs() string {
	cells := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t.title())
		if t == a.tab {
			cells = append(cells, activeTabStyle.Render(label))
		} else {
			cells = append(cells, tabStyle.Render(label))
		}
	}
	return " " + strings.Join(cells, " ")
}

func (a App) renderBody() string {
	switch a.tab {
	case TabStations:
		return a.stations.view()
	case TabNowPlaying:
		return a.nowPlaying.view(a.sleep)
	case TabLibrary:
		return a.library.view()
	case TabTV:
		return a.tv.view()
	case TabSettings:
		return a.settings.view(a.prefs, a.nowPlaying.styleName(), a.sleep, a.recDir)
	default:
		return ""
	}
}

func (a App) renderFooter() string {
	bannerLine := ""
	if a.rotator != nil && a.banner.Text != "" {
		bannerLine = bannerStyle.Render(a.banner.Text)
	}
	canRecord := a.nowPlaying.player != nil && a.nowPlaying.player.CaptureSupported()
	return "  " + bannerLine + "\n  " + helpStyle.Render(helpFor(a.keys, a.tab, canRecord))
}

func (a App) View() string {
	if a.quitting {
		return ""
	}
	content := a.tabCache + "\n" + a.bodyCache
	pad := a.height - lipgloss.Height(content+a.footerCache)
	if pad < 0 {
		pad = 0
	}
	return content + strings.Repeat("\n", pad) + a.footerCache
}

func windowTitle(name string, paused bool) string {
	if name == "" {
		return "clira"
	}
	if paused {
		return "⏸ " + name + " — clira"
	}
	return "▶ " + name + " — clira"
}
