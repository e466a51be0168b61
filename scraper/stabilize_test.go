package scraper

import (
	"testing"
	"time"

	"github.com/siddarth24/joblo/config"
)

// fakeDriver replays a scripted sequence of scroll heights.
type fakeDriver struct {
	heights []int
	pos     int
	scrolls int
}

func (f *fakeDriver) ScrollHeight() (int, error) {
	if f.pos < len(f.heights) {
		h := f.heights[f.pos]
		f.pos++
		return h, nil
	}
	return f.heights[len(f.heights)-1], nil
}

func (f *fakeDriver) ScrollByViewport() error {
	f.scrolls++
	return nil
}

func newTestStabilizer(maxScrolls int) *Stabilizer {
	s := NewStabilizer(config.StabilizerConfig{
		MaxScrolls:  maxScrolls,
		SettleDelay: time.Millisecond,
	})
	s.sleep = func(time.Duration) {}
	return s
}

func TestSettle_ConvergesWhenHeightStops(t *testing.T) {
	d := &fakeDriver{heights: []int{1000, 1500, 2000, 2000, 2000}}
	state := newTestStabilizer(10).settle(d)

	if state.ScrollHeight != 2000 {
		t.Errorf("final height = %d, want 2000", state.ScrollHeight)
	}
	// 1500, 2000 grew; the third re-measure matched and stopped the loop.
	if state.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", state.Attempts)
	}
}

func TestSettle_NeverExceedsCeiling(t *testing.T) {
	// Strictly growing heights: the page never converges.
	heights := make([]int, 100)
	for i := range heights {
		heights[i] = 1000 + i*100
	}

	for _, ceiling := range []int{1, 3, 10} {
		d := &fakeDriver{heights: heights}
		state := newTestStabilizer(ceiling).settle(d)
		if state.Attempts > ceiling {
			t.Errorf("ceiling %d: attempts = %d, want <= %d", ceiling, state.Attempts, ceiling)
		}
		if d.scrolls > ceiling {
			t.Errorf("ceiling %d: scrolls = %d, want <= %d", ceiling, d.scrolls, ceiling)
		}
	}
}

func TestSettle_ImmediateConvergence(t *testing.T) {
	d := &fakeDriver{heights: []int{500, 500}}
	state := newTestStabilizer(10).settle(d)

	if state.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (height never grew)", state.Attempts)
	}
	if state.ScrollHeight != 500 {
		t.Errorf("height = %d, want 500", state.ScrollHeight)
	}
}

func TestNewStabilizer_DropsInvalidSelectors(t *testing.T) {
	s := NewStabilizer(config.StabilizerConfig{
		MaxScrolls:  10,
		SettleDelay: time.Millisecond,
		PopupSelectors: []string{
			"button.close",
			"[[[not-a-selector",
			`button[aria-label="Close"]`,
		},
	})

	if len(s.selectors) != 2 {
		t.Errorf("valid selectors = %d, want 2 (invalid one dropped): %v", len(s.selectors), s.selectors)
	}
}
