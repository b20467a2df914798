package visualizer

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

func testConfig(bars int) Config {
	cfg := DefaultConfig()
	cfg.BarCount = bars
	cfg.Rand = rand.New(rand.NewSource(1))
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero bar count", func(c *Config) { c.BarCount = 0 }},
		{"negative bar count", func(c *Config) { c.BarCount = -3 }},
		{"min above max", func(c *Config) { c.MinHeight = 1.0; c.MaxHeight = 0.1 }},
		{"min equals max", func(c *Config) { c.MinHeight = 0.5; c.MaxHeight = 0.5 }},
		{"zero smoothing", func(c *Config) { c.SmoothingFactor = 0 }},
		{"smoothing at one", func(c *Config) { c.SmoothingFactor = 1 }},
		{"decay at one", func(c *Config) { c.DecayFactor = 1 }},
		{"zero refresh interval", func(c *Config) { c.RefreshInterval = 0 }},
		{"jitter above interval", func(c *Config) { c.RefreshJitter = 300 * time.Millisecond }},
		{"zero tick interval", func(c *Config) { c.TickInterval = 0 }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

func TestNewStartsSettledAtMinimum(t *testing.T) {
	a, err := New(testConfig(5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !a.Idle() {
		t.Fatal("expected a fresh animator to be idle")
	}
	for i, h := range a.Heights() {
		if h != a.cfg.MinHeight {
			t.Fatalf("bar %d: expected exactly %v, got %v", i, a.cfg.MinHeight, h)
		}
	}
}

func TestTickBeforeStartIsNoop(t *testing.T) {
	a, _ := New(testConfig(3))
	a.Tick(time.Unix(0, 0))
	a.Tick(time.Unix(1, 0))
	if !a.Idle() {
		t.Fatal("expected animator to stay idle")
	}
	for _, h := range a.Heights() {
		if h != 0.1 {
			t.Fatalf("expected height to stay at 0.1, got %v", h)
		}
	}
}

func TestPlayingTickEasesTowardTarget(t *testing.T) {
	a, _ := New(testConfig(3))
	a.Start()
	for i := range a.targets {
		a.targets[i] = 1.0
	}
	a.Tick(time.Unix(0, 0))
	for i, h := range a.Heights() {
		if math.Abs(h-0.235) > 1e-9 {
			t.Fatalf("bar %d: expected 0.235 after one tick from 0.1 toward 1.0, got %v", i, h)
		}
	}
}

func TestPlayingTickSnapsWithinEpsilon(t *testing.T) {
	a, _ := New(testConfig(1))
	a.Start()
	a.bars[0] = 0.995
	a.targets[0] = 1.0
	a.Tick(time.Unix(0, 0))
	if h := a.Heights()[0]; h != 1.0 {
		t.Fatalf("expected snap to exactly 1.0, got %v", h)
	}
}

func TestStartWhilePlayingKeepsTargets(t *testing.T) {
	a, _ := New(testConfig(8))
	a.Start()
	before := make([]float64, len(a.targets))
	copy(before, a.targets)
	a.Start()
	for i, want := range before {
		if a.targets[i] != want {
			t.Fatalf("target %d: expected %v after redundant Start, got %v", i, want, a.targets[i])
		}
	}
}

func TestStartResamplesTargetsFromStopped(t *testing.T) {
	a, _ := New(testConfig(8))
	a.Start()
	if same := equalFloats(a.targets, a.bars); same {
		t.Fatal("expected Start to sample targets away from the minimum row")
	}
	for i, v := range a.targets {
		if v < 0.1 || v > 1.0 {
			t.Fatalf("target %d: expected value in [0.1, 1.0], got %v", i, v)
		}
	}
}

func TestTargetRefreshPacedByWallClock(t *testing.T) {
	a, _ := New(testConfig(8))
	a.Start()
	base := time.Unix(10, 0)

	a.Tick(base) // arms the deadline, keeps the Start targets
	first := make([]float64, len(a.targets))
	copy(first, a.targets)

	a.Tick(base.Add(100 * time.Millisecond))
	if !equalFloats(a.targets, first) {
		t.Fatal("expected targets unchanged before the refresh interval elapses")
	}

	a.Tick(base.Add(200 * time.Millisecond))
	if equalFloats(a.targets, first) {
		t.Fatal("expected targets resampled once the refresh interval elapsed")
	}
}

func TestRefreshJitterBoundsInterval(t *testing.T) {
	cfg := testConfig(1)
	cfg.RefreshJitter = 100 * time.Millisecond
	a, _ := New(cfg)
	for range 1000 {
		iv := a.nextRefreshInterval()
		if iv < 100*time.Millisecond || iv > 300*time.Millisecond {
			t.Fatalf("expected jittered interval within [100ms, 300ms], got %v", iv)
		}
	}
}

func TestStopDecayStep(t *testing.T) {
	a, _ := New(testConfig(3))
	a.Start()
	for i := range a.targets {
		a.targets[i] = 1.0
	}
	a.Tick(time.Unix(0, 0)) // bars now at 0.235
	a.Stop()
	a.Tick(time.Unix(0, 0))
	for i, h := range a.Heights() {
		if math.Abs(h-0.1405) > 1e-9 {
			t.Fatalf("bar %d: expected 0.1405 after one decay tick from 0.235, got %v", i, h)
		}
	}
}

func TestStopSettlesExactlyAtMinimum(t *testing.T) {
	a, _ := New(testConfig(4))
	a.Start()
	for i := range a.bars {
		a.bars[i] = 1.0
	}
	a.Stop()

	ticks := 0
	for !a.Idle() {
		a.Tick(time.Unix(0, 0))
		ticks++
		if ticks > maxStopTicks {
			t.Fatalf("expected decay to settle within %d ticks", maxStopTicks)
		}
	}
	for i, h := range a.bars {
		if h != 0.1 {
			t.Fatalf("bar %d: expected exactly 0.1 after settling, got %v", i, h)
		}
		if a.targets[i] != 0.1 {
			t.Fatalf("target %d: expected clear to 0.1 after settling, got %v", i, a.targets[i])
		}
	}

	// Settled animators ignore further ticks.
	a.Tick(time.Unix(5, 0))
	if a.bars[0] != 0.1 {
		t.Fatalf("expected settled bars untouched by further ticks, got %v", a.bars[0])
	}
}

func TestStopTickCapForcesSnap(t *testing.T) {
	cfg := testConfig(2)
	cfg.DecayFactor = 0.9 // too slow to converge within the cap on its own
	a, _ := New(cfg)
	a.Start()
	for i := range a.bars {
		a.bars[i] = 1.0
	}
	a.Stop()

	for range maxStopTicks - 1 {
		a.Tick(time.Unix(0, 0))
	}
	if a.Idle() {
		t.Fatal("expected decay still running before the tick cap")
	}
	a.Tick(time.Unix(0, 0))
	if !a.Idle() {
		t.Fatal("expected the tick cap to force settling")
	}
	for i, h := range a.bars {
		if h != 0.1 {
			t.Fatalf("bar %d: expected hard snap to exactly 0.1, got %v", i, h)
		}
	}
}

func TestStopWhileStoppedKeepsDecayProgress(t *testing.T) {
	cfg := testConfig(2)
	cfg.DecayFactor = 0.9
	a, _ := New(cfg)
	a.Start()
	for i := range a.bars {
		a.bars[i] = 1.0
	}
	a.Stop()
	a.Tick(time.Unix(0, 0))
	a.Tick(time.Unix(0, 0))

	a.Stop()
	if a.decayTicks != 2 {
		t.Fatalf("expected redundant Stop to keep decay progress, got %d ticks", a.decayTicks)
	}
}

func TestHeightsStayInRange(t *testing.T) {
	a, _ := New(testConfig(16))
	a.Start()
	now := time.Unix(0, 0)
	for range 500 {
		a.Tick(now)
		now = now.Add(33 * time.Millisecond)
		for i, h := range a.Heights() {
			if h < 0.1 || h > 1.0 {
				t.Fatalf("bar %d: height %v outside [0.1, 1.0]", i, h)
			}
		}
	}
	a.Stop()
	for !a.Idle() {
		a.Tick(now)
		for i, h := range a.Heights() {
			if h < 0.1 || h > 1.0 {
				t.Fatalf("bar %d: decaying height %v outside [0.1, 1.0]", i, h)
			}
		}
	}
}

func TestSeededAnimatorsAgree(t *testing.T) {
	mk := func() *Animator {
		cfg := DefaultConfig()
		cfg.BarCount = 12
		cfg.Rand = rand.New(rand.NewSource(42))
		a, err := New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return a
	}
	a, b := mk(), mk()
	a.Start()
	b.Start()

	now := time.Unix(100, 0)
	for range 60 {
		a.Tick(now)
		b.Tick(now)
		if !equalFloats(a.Heights(), b.Heights()) {
			t.Fatalf("expected identical height sequences at %v", now)
		}
		now = now.Add(33 * time.Millisecond)
	}
}

func TestHeightsReturnsCopy(t *testing.T) {
	a, _ := New(testConfig(3))
	h := a.Heights()
	h[0] = 99
	if a.Heights()[0] != 0.1 {
		t.Fatalf("expected internal state unaffected by mutating a snapshot, got %v", a.Heights()[0])
	}
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
