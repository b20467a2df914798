package visualizer

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	// snapEpsilon pins a bar to its target once the residual is this small.
	snapEpsilon = 0.01
	// maxStopTicks bounds the decay after Stop; the animator snaps to the
	// minimum no later than this many ticks.
	maxStopTicks = 10
)

// ErrInvalidConfig is returned by New for out-of-range configuration.
var ErrInvalidConfig = errors.New("invalid animator config")

// Config controls an Animator. Use DefaultConfig as the starting point.
type Config struct {
	BarCount        int
	MinHeight       float64
	MaxHeight       float64
	SmoothingFactor float64       // fraction of the gap closed per playing tick
	DecayFactor     float64       // fraction of the gap retained per stop tick
	RefreshInterval time.Duration // how often playing targets are resampled
	RefreshJitter   time.Duration // ± randomization of the refresh interval

	// TickInterval and StopTickInterval are the cadences the caller should
	// drive Tick at; the animator itself paces only the target refresh.
	TickInterval     time.Duration
	StopTickInterval time.Duration

	// Rand supplies target randomness. Nil means time-seeded.
	Rand *rand.Rand
}

// DefaultConfig returns the stock animator tuning.
func DefaultConfig() Config {
	return Config{
		BarCount:         50,
		MinHeight:        0.1,
		MaxHeight:        1.0,
		SmoothingFactor:  0.15,
		DecayFactor:      0.30,
		RefreshInterval:  200 * time.Millisecond,
		RefreshJitter:    0,
		TickInterval:     33 * time.Millisecond,
		StopTickInterval: 16 * time.Millisecond,
	}
}

func (c Config) validate() error {
	switch {
	case c.BarCount <= 0:
		return fmt.Errorf("%w: bar count %d", ErrInvalidConfig, c.BarCount)
	case c.MinHeight >= c.MaxHeight:
		return fmt.Errorf("%w: height range [%v, %v]", ErrInvalidConfig, c.MinHeight, c.MaxHeight)
	case c.SmoothingFactor <= 0 || c.SmoothingFactor >= 1:
		return fmt.Errorf("%w: smoothing factor %v", ErrInvalidConfig, c.SmoothingFactor)
	case c.DecayFactor < 0 || c.DecayFactor >= 1:
		return fmt.Errorf("%w: decay factor %v", ErrInvalidConfig, c.DecayFactor)
	case c.RefreshInterval <= 0:
		return fmt.Errorf("%w: refresh interval %v", ErrInvalidConfig, c.RefreshInterval)
	case c.RefreshJitter < 0 || c.RefreshJitter >= c.RefreshInterval:
		return fmt.Errorf("%w: refresh jitter %v", ErrInvalidConfig, c.RefreshJitter)
	case c.TickInterval <= 0 || c.StopTickInterval <= 0:
		return fmt.Errorf("%w: tick intervals %v/%v", ErrInvalidConfig, c.TickInterval, c.StopTickInterval)
	}
	return nil
}

// Animator eases a row of bar heights toward periodically resampled random
// targets while playing, and decays them back to the minimum when stopped.
// It never runs on its own: the owner calls Tick at the configured cadence
// and pulls snapshots with Heights. All methods must be called from a single
// goroutine.
type Animator struct {
	cfg Config
	rng *rand.Rand

	bars    []float64
	targets []float64

	playing    bool
	refreshAt  time.Time
	settled    bool
	decayTicks int
}

// New validates cfg and returns an animator with every bar at the minimum.
func New(cfg Config) (*Animator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a := &Animator{
		cfg:     cfg,
		rng:     rng,
		bars:    make([]float64, cfg.BarCount),
		targets: make([]float64, cfg.BarCount),
		settled: true,
	}
	for i := range a.bars {
		a.bars[i] = cfg.MinHeight
		a.targets[i] = cfg.MinHeight
	}
	return a, nil
}

// Start switches to the playing state and resamples all targets. Calling
// Start while already playing changes nothing.
func (a *Animator) Start() {
	if a.playing {
		return
	}
	a.playing = true
	a.settled = false
	a.decayTicks = 0
	a.refreshAt = time.Time{}
	a.resampleTargets()
}

// Stop switches to the stopped state; subsequent ticks decay the bars to the
// minimum. Calling Stop while already stopped changes nothing.
func (a *Animator) Stop() {
	if !a.playing {
		return
	}
	a.playing = false
	a.decayTicks = 0
}

// Tick advances the animation one frame. Target refresh is paced by the
// wall-clock times passed in, so irregular tick delivery slows the animation
// rather than breaking it.
func (a *Animator) Tick(now time.Time) {
	if a.playing {
		a.tickPlaying(now)
		return
	}
	a.tickStopped()
}

func (a *Animator) tickPlaying(now time.Time) {
	// The first tick after Start arms the refresh deadline; Start itself
	// already sampled fresh targets.
	if a.refreshAt.IsZero() {
		a.refreshAt = now.Add(a.nextRefreshInterval())
	} else if !now.Before(a.refreshAt) {
		a.resampleTargets()
		a.refreshAt = now.Add(a.nextRefreshInterval())
	}
	for i, cur := range a.bars {
		next := cur + (a.targets[i]-cur)*a.cfg.SmoothingFactor
		if diff := a.targets[i] - next; diff < snapEpsilon && diff > -snapEpsilon {
			next = a.targets[i]
		}
		a.bars[i] = next
	}
}

func (a *Animator) tickStopped() {
	if a.settled {
		return
	}
	a.decayTicks++
	min := a.cfg.MinHeight
	within := true
	for i, cur := range a.bars {
		next := min + (cur-min)*a.cfg.DecayFactor
		a.bars[i] = next
		if next-min >= snapEpsilon {
			within = false
		}
	}
	if within || a.decayTicks >= maxStopTicks {
		for i := range a.bars {
			a.bars[i] = min
			a.targets[i] = min
		}
		a.settled = true
	}
}

func (a *Animator) resampleTargets() {
	span := a.cfg.MaxHeight - a.cfg.MinHeight
	for i := range a.targets {
		a.targets[i] = a.cfg.MinHeight + a.rng.Float64()*span
	}
}

func (a *Animator) nextRefreshInterval() time.Duration {
	if a.cfg.RefreshJitter <= 0 {
		return a.cfg.RefreshInterval
	}
	j := int64(a.cfg.RefreshJitter)
	return a.cfg.RefreshInterval + time.Duration(a.rng.Int63n(2*j+1)-j)
}

// Heights returns a copy of the current bar heights.
func (a *Animator) Heights() []float64 {
	out := make([]float64, len(a.bars))
	copy(out, a.bars)
	return out
}

// Playing reports whether the animator is in the playing state.
func (a *Animator) Playing() bool { return a.playing }

// Idle reports whether the animator is stopped and fully settled at the
// minimum, meaning further ticks are no-ops.
func (a *Animator) Idle() bool { return !a.playing && a.settled }

// BarCount returns the configured number of bars.
func (a *Animator) BarCount() int { return a.cfg.BarCount }
