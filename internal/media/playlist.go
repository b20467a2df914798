package media

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PlaylistEntry is one line of an .m3u/.m3u8/.pls file: either a local path
// or a remote stream URL, with the playlist title when one was given.
type PlaylistEntry struct {
	Path  string
	URL   string
	Title string
}

// ParsePlaylist parses a local .m3u/.m3u8/.pls file. Relative entries are
// resolved against the playlist file directory; http(s) entries become URL
// entries.
func ParsePlaylist(path string) ([]PlaylistEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsPlaylistExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}

	absPlaylistPath, err := filepath.Abs(path)
	if err != nil {
		absPlaylistPath = path
	}

	data, err := os.ReadFile(absPlaylistPath)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")

	baseDir := filepath.Dir(absPlaylistPath)
	scanner := bufio.NewScanner(strings.NewReader(text))

	switch ext {
	case ".pls":
		return parsePLS(scanner, baseDir), nil
	default:
		return parseM3U(scanner, baseDir), nil
	}
}

// FilterPlayable keeps URL entries and local entries that exist, are not
// directories, and carry a supported extension. Entries without a title get
// one from the filename or URL. The second result counts dropped entries.
func FilterPlayable(entries []PlaylistEntry) ([]PlaylistEntry, int) {
	out := make([]PlaylistEntry, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if e.URL != "" {
			if e.Title == "" {
				e.Title = e.URL
			}
			out = append(out, e)
			continue
		}
		info, err := os.Stat(e.Path)
		if err != nil || info.IsDir() || !IsSupportedExt(filepath.Ext(e.Path)) {
			skipped++
			continue
		}
		if abs, err := filepath.Abs(e.Path); err == nil {
			e.Path = abs
		}
		if e.Title == "" {
			base := filepath.Base(e.Path)
			e.Title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		out = append(out, e)
	}
	return out, skipped
}

func parseM3U(scanner *bufio.Scanner, baseDir string) []PlaylistEntry {
	entries := make([]PlaylistEntry, 0)
	pendingTitle := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#EXTINF:") {
			if i := strings.Index(line, ","); i >= 0 {
				pendingTitle = strings.TrimSpace(line[i+1:])
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.Trim(line, `"`)
		entry := PlaylistEntry{Title: pendingTitle}
		if isRemoteURL(line) {
			entry.URL = line
		} else {
			entry.Path = resolvePlaylistEntryPath(line, baseDir)
		}
		entries = append(entries, entry)
		pendingTitle = ""
	}
	return entries
}

func parsePLS(scanner *bufio.Scanner, baseDir string) []PlaylistEntry {
	files := make(map[int]string)
	titles := make(map[int]string)
	order := make([]int, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if val == "" {
			continue
		}
		if n, ok := plsKeyIndex(key, "file"); ok {
			if _, seen := files[n]; !seen {
				order = append(order, n)
			}
			files[n] = val
		} else if n, ok := plsKeyIndex(key, "title"); ok {
			titles[n] = val
		}
	}

	entries := make([]PlaylistEntry, 0, len(order))
	for _, n := range order {
		val := files[n]
		entry := PlaylistEntry{Title: titles[n]}
		if isRemoteURL(val) {
			entry.URL = val
		} else {
			entry.Path = resolvePlaylistEntryPath(val, baseDir)
		}
		entries = append(entries, entry)
	}
	return entries
}

// plsKeyIndex matches keys like File1/Title12 (case-insensitive) and returns
// the numeric suffix.
func plsKeyIndex(key, prefix string) (int, bool) {
	lower := strings.ToLower(key)
	if !strings.HasPrefix(lower, prefix) {
		return 0, false
	}
	rest := lower[len(prefix):]
	if rest == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
		n = n*10 + int(rest[i]-'0')
	}
	return n, true
}

func isRemoteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func resolvePlaylistEntryPath(raw, baseDir string) string {
	p := filepath.Clean(raw)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
