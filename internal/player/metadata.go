package player

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata holds track information for a recording.
type Metadata struct {
	Title  string
	Artist string
}

// ReadMetadata reads ID3v2 tags from an audio file, falling back to filename.
// Captured shows rarely carry tags, so the fallback does most of the work.
func ReadMetadata(path string) Metadata {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		defer tag.Close()
		m := Metadata{
			Title:  strings.TrimSpace(tag.Title()),
			Artist: strings.TrimSpace(tag.Artist()),
		}
		if m.Title != "" {
			return m
		}
	}

	base := filepath.Base(path)
	return Metadata{Title: strings.TrimSuffix(base, filepath.Ext(base))}
}

// TagRecording stamps a finished capture with the station name and the last
// in-stream title. Only MP3 files carry ID3 tags; other formats are left as
// captured.
func TagRecording(path, stationName, title string) error {
	if strings.ToLower(filepath.Ext(path)) != ".mp3" {
		return nil
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()
	if title != "" {
		tag.SetTitle(title)
	}
	if stationName != "" {
		tag.SetArtist(stationName)
	}
	return tag.Save()
}
