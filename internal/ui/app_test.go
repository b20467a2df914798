package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/clira/internal/player"
	"github.com/olivier-w/clira/internal/prefs"
	"github.com/olivier-w/clira/internal/station"
)

func testApp() App {
	return New(Options{
		Prefs:     prefs.Default(),
		Directory: station.NewDirectory(station.Defaults(), nil, nil),
	})
}

func TestViewPadsToWindowHeight(t *testing.T) {
	a := App{
		height:      8,
		tabCache:    " 1 stations",
		bodyCache:   "\n  body\n",
		footerCache: "  \n  help",
	}

	view := a.View()
	if lipgloss.Height(view) < 8 {
		t.Fatalf("expected padded view height >= 8, got %d", lipgloss.Height(view))
	}
	if !strings.Contains(view, "  help") {
		t.Fatalf("expected help content in padded view, got %q", view)
	}
}

func TestTitleMsgUpdatesNowPlaying(t *testing.T) {
	p := new(player.Player)
	a := App{nowPlaying: nowPlayingModel{player: p, nowTitle: "Original"}}

	next, cmd := a.handleMsg(titleMsg{player: p, title: "Updated"})
	if got := next.nowPlaying.nowTitle; got != "Updated" {
		t.Fatalf("expected updated title, got %q", got)
	}
	if next.dirty&dirtyBody == 0 {
		t.Fatal("expected body cache to be invalidated")
	}
	if cmd == nil {
		t.Fatal("expected command to keep listening for titles")
	}
}

func TestTitleMsgIgnoresStalePlayer(t *testing.T) {
	current := new(player.Player)
	stale := new(player.Player)
	a := App{nowPlaying: nowPlayingModel{player: current, nowTitle: "Original"}}

	next, cmd := a.handleMsg(titleMsg{player: stale, title: "Updated"})
	if got := next.nowPlaying.nowTitle; got != "Original" {
		t.Fatalf("expected original title, got %q", got)
	}
	if cmd != nil {
		t.Fatal("expected no command for stale player update")
	}
}

func TestDigitKeySwitchesTab(t *testing.T) {
	a := App{}

	next, _ := a.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if next.tab != TabLibrary {
		t.Fatalf("expected library tab, got %v", next.tab)
	}
	if next.dirty&dirtyTabs == 0 {
		t.Fatal("expected tab cache to be invalidated")
	}
}

func TestVolumeChangeUpdatesPrefsWithoutSaving(t *testing.T) {
	a := App{}

	next, cmd := a.handleMsg(volumeChangedMsg{volume: 0.3})
	if got := next.prefs.Volume; got != 0.3 {
		t.Fatalf("expected volume 0.3, got %v", got)
	}
	if cmd != nil {
		t.Fatal("expected no save command for a volume nudge")
	}
}

func TestTuneSwitchesToTVTabForVideoStations(t *testing.T) {
	a := testApp()
	st, ok := a.directory.Get("nasa-tv")
	if !ok || !st.Video {
		t.Fatalf("expected built-in video station, got %+v", st)
	}

	next, cmd := a.handleMsg(tuneRequestMsg{st: st})
	if next.tab != TabTV {
		t.Fatalf("expected tv tab, got %v", next.tab)
	}
	if !next.nowPlaying.connecting {
		t.Fatal("expected connecting state")
	}
	if got := next.prefs.LastStationID; got != "nasa-tv" {
		t.Fatalf("expected last station nasa-tv, got %q", got)
	}
	if cmd == nil {
		t.Fatal("expected tune command")
	}
}

func TestTuneDoneIgnoresStaleStation(t *testing.T) {
	a := testApp()
	orphan := new(player.Player)

	next, cmd := a.handleMsg(tuneDoneMsg{st: station.Station{ID: "elsewhere"}, p: orphan})
	if next.nowPlaying.player != nil {
		t.Fatal("expected stale stream to be discarded")
	}
	if cmd != nil {
		t.Fatal("expected no command for stale tune result")
	}
}

func TestSleepFiredIgnoresStaleSeq(t *testing.T) {
	a := testApp()
	a.sleep = Sleep15
	a.sleepSeq = 2

	next, cmd := a.handleMsg(sleepFiredMsg{seq: 1})
	if next.sleep != Sleep15 {
		t.Fatalf("expected rearmed timer to survive, got %v", next.sleep)
	}
	if cmd != nil {
		t.Fatal("expected no command for stale sleep timer")
	}
}

func TestSleepFiredStopsPlayback(t *testing.T) {
	a := testApp()
	a.sleep = Sleep30
	a.sleepSeq = 1

	next, _ := a.handleMsg(sleepFiredMsg{seq: 1})
	if next.sleep != SleepOff {
		t.Fatalf("expected sleep timer off, got %v", next.sleep)
	}
	if next.nowPlaying.player != nil {
		t.Fatal("expected live playback to stop")
	}
}

func TestStyleKeyCyclesRendererAndSavesPref(t *testing.T) {
	a := testApp()
	a.tab = TabNowPlaying

	next, cmd := a.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	if cmd == nil {
		t.Fatal("expected style change command")
	}
	msg, ok := cmd().(styleChangedMsg)
	if !ok {
		t.Fatalf("expected styleChangedMsg, got %T", cmd())
	}
	if msg.name != "mirror" {
		t.Fatalf("expected mirror style, got %q", msg.name)
	}

	next, cmd = next.handleMsg(msg)
	if got := next.prefs.VisualizerStyle; got != "mirror" {
		t.Fatalf("expected style pref mirror, got %q", got)
	}
	if cmd == nil {
		t.Fatal("expected save command")
	}
}

func TestSettingChangeTogglesBanner(t *testing.T) {
	a := testApp()
	if a.rotator == nil {
		t.Fatal("expected banner rotator on by default")
	}

	next, cmd := a.handleMsg(settingChangedMsg{field: settingBanner, delta: 1})
	if next.prefs.BannerEnabled {
		t.Fatal("expected banner pref to toggle off")
	}
	if next.rotator != nil {
		t.Fatal("expected rotator to be dropped")
	}
	if cmd == nil {
		t.Fatal("expected save command")
	}
}
