package banner

import (
	"errors"
	"testing"
	"time"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fill() (string, error) {
	s.calls++
	return s.text, s.err
}

func TestRefreshWaterfallSkipsEmptyAndFailing(t *testing.T) {
	failing := &stubProvider{name: "failing", err: errors.New("no fill")}
	empty := &stubProvider{name: "empty"}
	ok := &stubProvider{name: "ok", text: "hello"}
	r := NewRotator(30*time.Second, failing, empty, ok)

	b, changed := r.Refresh(time.Unix(0, 0))
	if !changed {
		t.Fatal("expected a fill on the first refresh")
	}
	if b.Source != "ok" || b.Text != "hello" {
		t.Fatalf("unexpected banner %+v", b)
	}
	if b.RequestID == "" {
		t.Fatal("expected a request ID on every fill")
	}
	if failing.calls != 1 || empty.calls != 1 {
		t.Fatalf("expected the waterfall to try earlier providers, got %d/%d calls", failing.calls, empty.calls)
	}
}

func TestRefreshHonorsInterval(t *testing.T) {
	p := &stubProvider{name: "p", text: "x"}
	r := NewRotator(30*time.Second, p)
	base := time.Unix(0, 0)

	r.Refresh(base)
	if _, changed := r.Refresh(base.Add(10 * time.Second)); changed {
		t.Fatal("expected no refill before the interval elapses")
	}
	if _, changed := r.Refresh(base.Add(30 * time.Second)); !changed {
		t.Fatal("expected a refill once the interval elapsed")
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 fills, got %d", p.calls)
	}
}

func TestRefreshRotatesAcrossProviders(t *testing.T) {
	a := &stubProvider{name: "a", text: "a"}
	b := &stubProvider{name: "b", text: "b"}
	r := NewRotator(time.Second, a, b)
	base := time.Unix(0, 0)

	first, _ := r.Refresh(base)
	second, _ := r.Refresh(base.Add(time.Second))
	if first.Source == second.Source {
		t.Fatalf("expected rotation across providers, got %s twice", first.Source)
	}

	imp := r.Impressions()
	if imp["a"] != 1 || imp["b"] != 1 {
		t.Fatalf("expected one impression each, got %v", imp)
	}
}

func TestRefreshKeepsPreviousBannerOnTotalMiss(t *testing.T) {
	flaky := &stubProvider{name: "flaky", text: "shown once"}
	r := NewRotator(time.Second, flaky)
	base := time.Unix(0, 0)

	r.Refresh(base)
	flaky.text = ""
	b, changed := r.Refresh(base.Add(time.Second))
	if changed {
		t.Fatal("expected no change on a total miss")
	}
	if b.Text != "shown once" {
		t.Fatalf("expected the previous banner to stick, got %q", b.Text)
	}
}

func TestRequestIDsAreDistinct(t *testing.T) {
	p := &stubProvider{name: "p", text: "x"}
	r := NewRotator(time.Second, p)
	first, _ := r.Refresh(time.Unix(0, 0))
	second, _ := r.Refresh(time.Unix(1, 0))
	if first.RequestID == second.RequestID {
		t.Fatalf("expected distinct request IDs, got %q twice", first.RequestID)
	}
}

func TestTipsAlwaysFillAndCycle(t *testing.T) {
	tips := NewTips()
	seen := make(map[string]bool)
	for range len(tipLines) {
		line, err := tips.Fill()
		if err != nil {
			t.Fatalf("Fill() error = %v", err)
		}
		if line == "" {
			t.Fatal("expected tips to always fill")
		}
		seen[line] = true
	}
	if len(seen) != len(tipLines) {
		t.Fatalf("expected %d distinct tips, got %d", len(tipLines), len(seen))
	}
}

func TestPromosEmptyWhenNoLines(t *testing.T) {
	p := NewPromos(func() []string { return nil })
	line, err := p.Fill()
	if err != nil || line != "" {
		t.Fatalf("expected empty fill, got %q, %v", line, err)
	}
}
