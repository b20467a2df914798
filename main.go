package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/clira/internal/history"
	"github.com/olivier-w/clira/internal/library"
	"github.com/olivier-w/clira/internal/prefs"
	"github.com/olivier-w/clira/internal/station"
	"github.com/olivier-w/clira/internal/ui"
)

func main() {
	prefsPath, err := prefs.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	p, err := prefs.Load(prefsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	recDir := p.RecordingsDir
	if recDir == "" {
		recDir, err = library.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	dir := station.NewDirectory(station.Defaults(), p.Stations, p.FavoriteIDs)

	// Listening history is best-effort: without it the app just runs with
	// stats and "last played" hints disabled.
	var log *history.Store
	if dbPath, err := history.DefaultPath(); err == nil {
		if s, err := history.Open(dbPath); err == nil {
			log = s
			defer log.Close()
		}
	}

	opts := ui.Options{
		Prefs:         p,
		PrefsPath:     prefsPath,
		Directory:     dir,
		Log:           log,
		RecordingsDir: recDir,
	}

	// clira [station|url] tunes straight in.
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if st, ok := findStation(dir, arg); ok {
			opts.InitialStation = &st
		} else if normalized, err := station.NormalizeURL(arg); err == nil {
			st := station.Station{Name: displayName(normalized), URL: normalized}
			opts.InitialStation = &st
		} else {
			fmt.Fprintf(os.Stderr, "Error: %q is not a known station or a stream URL\n", arg)
			os.Exit(1)
		}
	}

	var root tea.Model
	if p.Onboarded {
		root = ui.New(opts)
	} else {
		root = newOnboarding(opts)
	}

	program := tea.NewProgram(root, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// findStation matches an argument against the directory by ID, then exact
// name, then name substring, case-insensitively.
func findStation(dir *station.Directory, q string) (station.Station, bool) {
	if st, ok := dir.Get(q); ok {
		return st, true
	}
	lq := strings.ToLower(q)
	for _, st := range dir.All() {
		if strings.ToLower(st.Name) == lq {
			return st, true
		}
	}
	for _, st := range dir.All() {
		if strings.Contains(strings.ToLower(st.Name), lq) {
			return st, true
		}
	}
	return station.Station{}, false
}

func displayName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
