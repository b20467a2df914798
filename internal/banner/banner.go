package banner

import (
	"time"

	"github.com/google/uuid"
)

// Banner is one footer line with its fill metadata.
type Banner struct {
	Text      string
	Source    string
	RequestID string
}

// Provider produces footer banners. A Fill may return empty text or an error
// when it has nothing to show; the rotator falls through to the next one.
type Provider interface {
	Name() string
	Fill() (string, error)
}

// Rotator picks the footer banner. Each refresh walks the providers waterfall
// style from a rotating start, first non-empty fill wins; on a total miss the
// previous banner sticks. Not goroutine safe: the UI model owns it.
type Rotator struct {
	providers   []Provider
	interval    time.Duration
	start       int
	current     Banner
	nextAt      time.Time
	impressions map[string]int
}

// NewRotator creates a rotator over the given providers in priority order.
func NewRotator(interval time.Duration, providers ...Provider) *Rotator {
	return &Rotator{
		providers:   providers,
		interval:    interval,
		impressions: make(map[string]int),
	}
}

// Refresh returns the banner for now, filling a new one when the refresh
// interval has elapsed. The second result reports whether the banner changed.
func (r *Rotator) Refresh(now time.Time) (Banner, bool) {
	if !r.nextAt.IsZero() && now.Before(r.nextAt) {
		return r.current, false
	}
	r.nextAt = now.Add(r.interval)

	n := len(r.providers)
	for i := range n {
		p := r.providers[(r.start+i)%n]
		text, err := p.Fill()
		if err != nil || text == "" {
			continue
		}
		r.start = (r.start + i + 1) % n
		r.current = Banner{
			Text:      text,
			Source:    p.Name(),
			RequestID: uuid.NewString(),
		}
		r.impressions[p.Name()]++
		return r.current, true
	}
	return r.current, false
}

// Current returns the banner shown right now.
func (r *Rotator) Current() Banner {
	return r.current
}

// Impressions returns how many times each provider has filled.
func (r *Rotator) Impressions() map[string]int {
	out := make(map[string]int, len(r.impressions))
	for k, v := range r.impressions {
		out[k] = v
	}
	return out
}
