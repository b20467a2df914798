package banner

import (
	"fmt"
	"time"

	"github.com/olivier-w/clira/internal/util"
)

// Promos cycles through station promo lines.
type Promos struct {
	lines func() []string
	next  int
}

// NewPromos creates a promo provider. lines is called on every fill so
// directory changes show up.
func NewPromos(lines func() []string) *Promos {
	return &Promos{lines: lines}
}

func (p *Promos) Name() string { return "promos" }

func (p *Promos) Fill() (string, error) {
	lines := p.lines()
	if len(lines) == 0 {
		return "", nil
	}
	line := lines[p.next%len(lines)]
	p.next++
	return line, nil
}

// ListeningStats reports weekly listening totals from the history store.
type ListeningStats struct {
	store StatsSource
	now   func() time.Time
}

// StatsSource is the slice of the history store the provider needs.
type StatsSource interface {
	TotalSeconds(since time.Time) (int64, error)
	StationCount(since time.Time) (int64, error)
}

// NewListeningStats creates a stats provider. now defaults to time.Now.
func NewListeningStats(store StatsSource, now func() time.Time) *ListeningStats {
	if now == nil {
		now = time.Now
	}
	return &ListeningStats{store: store, now: now}
}

func (s *ListeningStats) Name() string { return "stats" }

func (s *ListeningStats) Fill() (string, error) {
	since := s.now().AddDate(0, 0, -7)
	secs, err := s.store.TotalSeconds(since)
	if err != nil {
		return "", err
	}
	if secs == 0 {
		return "", nil
	}
	stations, err := s.store.StationCount(since)
	if err != nil {
		return "", err
	}
	listened := util.FormatClock(time.Duration(secs) * time.Second)
	if stations == 1 {
		return fmt.Sprintf("This week: %s of listening", listened), nil
	}
	return fmt.Sprintf("This week: %s across %d stations", listened, stations), nil
}

// Tips cycles through static usage hints.
type Tips struct {
	next int
}

// NewTips creates the fallback tip provider; it always fills.
func NewTips() *Tips {
	return &Tips{}
}

var tipLines = []string{
	"Press r to record the current station",
	"Press f to favorite a station; favorites sort first",
	"Press v to switch the visualizer style",
	"Press z to set a sleep timer",
	"Add your own station with a on the Stations tab",
	"Drop an .m3u or .pls in the Stations tab with i to import",
}

func (t *Tips) Name() string { return "tips" }

func (t *Tips) Fill() (string, error) {
	line := tipLines[t.next%len(tipLines)]
	t.next++
	return line, nil
}
