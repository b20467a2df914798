package station

import (
	"fmt"

	"github.com/olivier-w/clira/internal/media"
)

// ImportFile reads a local .m3u/.m3u8/.pls file and returns its remote
// entries as stations. Local file entries are skipped; the tuner plays
// streams, not files.
func ImportFile(path string) ([]Station, error) {
	entries, err := media.ParsePlaylist(path)
	if err != nil {
		return nil, err
	}

	stations := make([]Station, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		name := e.Title
		if name == "" {
			name = e.URL
		}
		stations = append(stations, Station{Name: name, URL: e.URL})
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("no stream URLs in %s", path)
	}
	return stations, nil
}
