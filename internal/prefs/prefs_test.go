package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/olivier-w/clira/internal/station"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Onboarded {
		t.Fatal("expected a fresh install to not be onboarded")
	}
	if p.VisualizerBars != 50 || p.VisualizerStyle != "bars" {
		t.Fatalf("unexpected visualizer defaults: %d bars, style %q", p.VisualizerBars, p.VisualizerStyle)
	}
	if !p.BannerEnabled {
		t.Fatal("expected banners enabled by default")
	}
	if p.InstallID == "" {
		t.Fatal("expected Load to mint an install ID")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	p := Default()
	p.InstallID = "fixed"
	p.Onboarded = true
	p.Volume = 0.5
	p.LastStationID = "groove-salad"
	p.Stations = []station.Station{{ID: "mine", Name: "Mine", URL: "https://mine/stream"}}
	p.FavoriteIDs = []string{"mine"}

	if err := p.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Onboarded || got.Volume != 0.5 || got.LastStationID != "groove-salad" {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.InstallID != "fixed" {
		t.Fatalf("expected install ID preserved, got %q", got.InstallID)
	}
	if len(got.Stations) != 1 || got.Stations[0].URL != "https://mine/stream" {
		t.Fatalf("round trip lost stations: %+v", got.Stations)
	}
}

func TestLoadClampsVolume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"install_id":"x","volume":3.5}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Volume != 1.0 {
		t.Fatalf("expected volume clamped to 1.0, got %v", p.Volume)
	}
}

func TestLoadRejectsCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for corrupt prefs")
	}
}
