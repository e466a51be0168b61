package scraper

import (
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/siddarth24/joblo/config"
	"github.com/siddarth24/joblo/textmatch"
)

// clickableQuery covers the controls a "show more" label can live on.
const clickableQuery = `button, a, [role='button']`

// Matcher locates and clicks the page element whose visible text best
// matches a target label.
type Matcher struct {
	cfg   config.MatcherConfig
	sleep func(time.Duration)
}

// NewMatcher creates a Matcher with the given threshold and wait settings.
func NewMatcher(cfg config.MatcherConfig) *Matcher {
	return &Matcher{cfg: cfg, sleep: time.Sleep}
}

// ClickBestMatch scans every clickable element, scores its text against the
// target label, and clicks the best candidate iff its score meets the
// threshold. Element references are re-enumerated on every call — they
// invalidate whenever the DOM changes, so nothing is cached.
//
// Returns whether a click happened. Per-element read/click failures are
// logged and skipped; one bad element never aborts the scan.
func (m *Matcher) ClickBestMatch(page *rod.Page, target string) bool {
	// Bounded wait for at least one candidate to exist.
	waitPage := page.Timeout(m.cfg.WaitTimeout)
	if err := waitPage.WaitElementsMoreThan(clickableQuery, 0); err != nil {
		slog.Warn("timed out waiting for clickable elements", "error", err)
		return false
	}

	elements, err := page.Elements(clickableQuery)
	if err != nil {
		slog.Warn("clickable element query failed", "error", err)
		return false
	}

	bestScore := 0.0
	var best *rod.Element
	bestText := ""

	for i, el := range elements {
		text, err := el.Text()
		if err != nil {
			slog.Debug("could not read element text", "index", i, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		score := textmatch.Similarity(text, target)
		slog.Debug("match candidate", "index", i, "text", text, "score", score)
		// Strict > keeps the first-seen element on ties.
		if score > bestScore {
			bestScore = score
			best = el
			bestText = text
		}
	}

	if !Accept(bestScore, m.cfg.Threshold) || best == nil {
		slog.Info("no candidate reached the click threshold", "bestScore", bestScore)
		return false
	}

	if err := best.Click(proto.InputMouseButtonLeft, 1); err != nil {
		slog.Warn("click on best candidate failed", "text", bestText, "error", err)
		return false
	}
	slog.Info("clicked best matching element", "text", bestText, "score", bestScore)

	// Let any animation or content swap play out before re-observing.
	m.sleep(m.cfg.ClickSettle)
	return true
}

// Accept reports whether a similarity score qualifies for a click.
// The threshold is inclusive: score ≥ threshold clicks.
func Accept(score, threshold float64) bool {
	return score >= threshold
}

// RankCandidates scores each candidate text against the target and returns
// the index and score of the best one (first-seen wins ties), or -1 when
// the list is empty. Exposed for the pure selection logic's tests.
func RankCandidates(texts []string, target string) (int, float64) {
	bestIdx := -1
	bestScore := 0.0
	for i, t := range texts {
		if score := textmatch.Similarity(strings.TrimSpace(t), target); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return bestIdx, bestScore
}
