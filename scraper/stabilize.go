package scraper

import (
	"log/slog"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/siddarth24/joblo/config"
)

// StabilizationState reports what the stabilizer did to the page.
type StabilizationState struct {
	ScrollHeight int
	Attempts     int
	PopupsClosed int
}

// pageDriver abstracts the two page mutations the scroll loop needs, so the
// convergence logic can be tested against simulated height sequences.
type pageDriver interface {
	ScrollHeight() (int, error)
	ScrollByViewport() error
}

// rodDriver adapts a live rod page to the pageDriver interface.
type rodDriver struct {
	page *rod.Page
}

func (d rodDriver) ScrollHeight() (int, error) {
	res, err := d.page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (d rodDriver) ScrollByViewport() error {
	res, err := d.page.Eval(`() => window.innerHeight`)
	if err != nil {
		return err
	}
	return d.page.Mouse.Scroll(0, float64(res.Value.Int()), 0)
}

// Stabilizer mutates a live page until its content is judged settled:
// lazy-loaded content scrolled in, popups closed.
type Stabilizer struct {
	cfg       config.StabilizerConfig
	selectors []string
	sleep     func(time.Duration)
}

// NewStabilizer creates a Stabilizer. Popup selectors that fail to parse
// as CSS are dropped here, with a warning, rather than erroring on every
// page later.
func NewStabilizer(cfg config.StabilizerConfig) *Stabilizer {
	valid := make([]string, 0, len(cfg.PopupSelectors))
	for _, sel := range cfg.PopupSelectors {
		if _, err := cascadia.Parse(sel); err != nil {
			slog.Warn("invalid popup selector dropped", "selector", sel, "error", err)
			continue
		}
		valid = append(valid, sel)
	}
	return &Stabilizer{cfg: cfg, selectors: valid, sleep: time.Sleep}
}

// Settle scrolls the page one viewport at a time until the document height
// stops growing or the iteration ceiling is reached. This is a fixed-point
// convergence detector for lazy-loaded content: it tolerates false early
// termination in favor of bounded latency.
func (s *Stabilizer) Settle(page *rod.Page) StabilizationState {
	return s.settle(rodDriver{page: page})
}

func (s *Stabilizer) settle(d pageDriver) StabilizationState {
	state := StabilizationState{}

	height, err := d.ScrollHeight()
	if err != nil {
		slog.Warn("could not read scroll height, skipping stabilization", "error", err)
		return state
	}
	state.ScrollHeight = height

	for i := 0; i < s.cfg.MaxScrolls; i++ {
		state.Attempts++
		if err := d.ScrollByViewport(); err != nil {
			slog.Warn("scroll step failed", "attempt", state.Attempts, "error", err)
			break
		}
		s.sleep(s.cfg.SettleDelay)

		newHeight, err := d.ScrollHeight()
		if err != nil {
			slog.Warn("could not re-measure scroll height", "error", err)
			break
		}
		if newHeight == state.ScrollHeight {
			slog.Debug("page height converged", "height", newHeight, "attempts", state.Attempts)
			break
		}
		state.ScrollHeight = newHeight
	}

	return state
}

// ClosePopups walks the configured close-control selectors, clicking any
// visible match, and repeats until a full pass closes nothing or the
// attempt ceiling is hit. Per-selector failures are non-fatal.
func (s *Stabilizer) ClosePopups(page *rod.Page, maxAttempts int) int {
	closed := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		found := false
		for _, sel := range s.selectors {
			el, err := page.Sleeper(rod.NotFoundSleeper).Element(sel)
			if err != nil {
				continue
			}
			visible, err := el.Visible()
			if err != nil || !visible {
				continue
			}
			if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
				slog.Debug("popup close click failed", "selector", sel, "error", err)
				continue
			}
			slog.Info("closed popup", "selector", sel)
			closed++
			found = true
			s.sleep(time.Second)
		}
		if !found {
			break
		}
	}
	return closed
}
