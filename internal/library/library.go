package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olivier-w/clira/internal/media"
)

// Recording is one playable file in the library.
type Recording struct {
	Path    string
	Title   string
	Station string // parsed from capture filenames, empty otherwise
	ModTime time.Time
	Size    int64
}

// DefaultDir returns where captures land when the config does not say
// otherwise.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home dir: %w", err)
	}
	return filepath.Join(home, "clira-recordings"), nil
}

// Scan lists playable files in dir, newest first. Playlist files found in the
// dir are followed; their local entries join the list.
func Scan(dir string) ([]Recording, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading library dir: %w", err)
	}

	recs := make([]Recording, 0, len(entries))
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ext := filepath.Ext(entry.Name())
		switch {
		case media.IsSupportedExt(ext):
			info, err := entry.Info()
			if err != nil {
				continue
			}
			recs = append(recs, newRecording(path, "", info.ModTime(), info.Size()))
			seen[path] = true
		case media.IsPlaylistExt(ext):
			listed, err := media.ParsePlaylist(path)
			if err != nil {
				continue
			}
			playable, _ := media.FilterPlayable(listed)
			for _, e := range playable {
				if e.Path == "" || seen[e.Path] {
					continue
				}
				info, err := os.Stat(e.Path)
				if err != nil {
					continue
				}
				recs = append(recs, newRecording(e.Path, e.Title, info.ModTime(), info.Size()))
				seen[e.Path] = true
			}
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ModTime.After(recs[j].ModTime)
	})
	return recs, nil
}

// newRecording fills Title and Station from the filename. Captures are named
// "<station> - <timestamp>.<ext>".
func newRecording(path, title string, modTime time.Time, size int64) Recording {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" {
		title = stem
	}
	station := ""
	if i := strings.Index(stem, " - "); i > 0 {
		station = stem[:i]
	}
	return Recording{
		Path:    path,
		Title:   title,
		Station: station,
		ModTime: modTime,
		Size:    size,
	}
}
