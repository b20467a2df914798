package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/clira/internal/player"
	"github.com/olivier-w/clira/internal/visualizer"
)

func testNowPlaying() nowPlayingModel {
	m := newNowPlayingModel(defaultKeyMap(), 1.0, "bars", 12, "")
	m.player = new(player.Player)
	return m
}

func TestNewNowPlayingIgnoresNonPositiveBarCount(t *testing.T) {
	m := newNowPlayingModel(defaultKeyMap(), 1.0, "bars", 0, "")
	if m.anim == nil {
		t.Fatal("expected a live animator")
	}
	if got, want := m.animCfg.BarCount, visualizer.DefaultConfig().BarCount; got != want {
		t.Fatalf("expected default bar count %d, got %d", want, got)
	}
}

func TestTitleMsgCountsDistinctTitles(t *testing.T) {
	p := new(player.Player)
	m := nowPlayingModel{player: p}

	next, cmd := m.handleMsg(titleMsg{player: p, title: "Artist - Song"})
	if got := next.nowTitle; got != "Artist - Song" {
		t.Fatalf("expected title update, got %q", got)
	}
	if next.titles != 1 {
		t.Fatalf("expected 1 title, got %d", next.titles)
	}
	if cmd == nil {
		t.Fatal("expected command to keep listening for titles")
	}

	next, _ = next.handleMsg(titleMsg{player: p, title: "Artist - Song"})
	if next.titles != 1 {
		t.Fatalf("expected repeated title to not count, got %d", next.titles)
	}

	next, _ = next.handleMsg(titleMsg{player: p, title: "Artist - Next Song"})
	if next.titles != 2 {
		t.Fatalf("expected 2 titles, got %d", next.titles)
	}
}

func TestSyncAnimFlipsOnlyOnStateChange(t *testing.T) {
	m := testNowPlaying()

	if cmd := m.syncAnim(); cmd == nil {
		t.Fatal("expected tick command when animation starts")
	}
	if m.animGen != 1 {
		t.Fatalf("expected generation 1, got %d", m.animGen)
	}
	if cmd := m.syncAnim(); cmd != nil {
		t.Fatal("expected no command without a state flip")
	}
}

func TestAnimTickIgnoresStaleGeneration(t *testing.T) {
	m := testNowPlaying()
	if cmd := m.syncAnim(); cmd == nil {
		t.Fatal("expected tick command when animation starts")
	}

	next, cmd := m.handleMsg(animTickMsg{gen: 0, at: time.Now()})
	if cmd != nil {
		t.Fatal("expected stale tick to be dropped")
	}

	next, cmd = next.handleMsg(animTickMsg{gen: next.animGen, at: time.Now()})
	if cmd == nil {
		t.Fatal("expected current tick to rearm")
	}
}

func TestStopPlaybackDecaysVisualizer(t *testing.T) {
	m := testNowPlaying()
	if cmd := m.syncAnim(); cmd == nil {
		t.Fatal("expected tick command when animation starts")
	}

	cmd := m.stopPlayback()
	if m.player != nil {
		t.Fatal("expected player to be released")
	}
	if m.anim.Playing() {
		t.Fatal("expected animator to leave playing state")
	}
	if cmd == nil {
		t.Fatal("expected decay tick command")
	}
}

func TestRecordKeyWithoutCaptureSupportSetsStatus(t *testing.T) {
	m := testNowPlaying()

	next, cmd := m.handleMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd != nil {
		t.Fatal("expected no capture command")
	}
	if got := next.status; got != "Recording is not supported for this stream" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestToggleRecordWithoutPlayerSetsStatus(t *testing.T) {
	m := nowPlayingModel{}

	next, cmd := m.toggleRecord()
	if cmd != nil {
		t.Fatal("expected no capture command")
	}
	if got := next.status; got != "Nothing playing" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestCaptureStartedIgnoresStalePlayer(t *testing.T) {
	current := new(player.Player)
	stale := new(player.Player)
	m := nowPlayingModel{player: current}

	next, _ := m.handleMsg(captureStartedMsg{player: stale, path: "/tmp/x.mp3"})
	if next.capturing {
		t.Fatal("expected stale capture start to be ignored")
	}
}
