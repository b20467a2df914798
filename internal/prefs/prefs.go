package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/olivier-w/clira/internal/station"
)

// Prefs is everything clira remembers between runs.
type Prefs struct {
	Onboarded       bool              `json:"onboarded"`
	InstallID       string            `json:"install_id"`
	Volume          float64           `json:"volume"`
	VisualizerStyle string            `json:"visualizer_style"`
	VisualizerBars  int               `json:"visualizer_bars"`
	BannerEnabled   bool              `json:"banner_enabled"`
	RecordingsDir   string            `json:"recordings_dir,omitempty"`
	LastStationID   string            `json:"last_station_id,omitempty"`
	Stations        []station.Station `json:"stations,omitempty"`
	FavoriteIDs     []string          `json:"favorite_ids,omitempty"`
}

// Default returns the preferences for a fresh install. The install ID is
// minted by Load so defaults stay comparable.
func Default() Prefs {
	return Prefs{
		Volume:          1.0,
		VisualizerStyle: "bars",
		VisualizerBars:  50,
		BannerEnabled:   true,
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, "clira", "config.json"), nil
}

// Load reads preferences from path. A missing file yields defaults. The
// install ID is minted when absent; callers persist it with the next Save.
func Load(path string) (Prefs, error) {
	p := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return p, fmt.Errorf("reading prefs: %w", err)
	default:
		if err := json.Unmarshal(data, &p); err != nil {
			return Default(), fmt.Errorf("parsing prefs: %w", err)
		}
	}
	if p.InstallID == "" {
		p.InstallID = uuid.NewString()
	}
	if p.Volume < 0 {
		p.Volume = 0
	}
	if p.Volume > 1 {
		p.Volume = 1
	}
	if p.VisualizerBars <= 0 {
		p.VisualizerBars = Default().VisualizerBars
	}
	return p, nil
}

// Save writes preferences to path, creating parent directories. The write
// goes through a temp file in the same directory and renames into place.
func (p Prefs) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding prefs: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("creating temp prefs file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing prefs file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting prefs mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing prefs: %w", err)
	}
	return nil
}
