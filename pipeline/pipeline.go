// Package pipeline orchestrates one extraction request end to end: routing,
// browser automation, OCR, expansion, and LLM structuring. Every invocation
// starts from a clean browser session and returns a models.Record — failures
// are data, never exceptions across the pipeline boundary.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"

	"github.com/siddarth24/joblo/config"
	"github.com/siddarth24/joblo/linkedin"
	"github.com/siddarth24/joblo/llm"
	"github.com/siddarth24/joblo/models"
	"github.com/siddarth24/joblo/ocr"
	"github.com/siddarth24/joblo/planner"
	"github.com/siddarth24/joblo/scraper"
	"github.com/siddarth24/joblo/synth"
	"github.com/siddarth24/joblo/textsig"
)

// The visual pipeline's stages sit behind small interfaces, the same way the
// scroll loop abstracts its page mutations: orchestration logic stays
// testable against simulated stages while production wiring binds the real
// browser-backed implementations.

type browserSession interface {
	Navigate(ctx context.Context, url string) error
	Page() *rod.Page
	Engine() string
	Close()
}

type pageStabilizer interface {
	Settle(page *rod.Page) scraper.StabilizationState
	ClosePopups(page *rod.Page, maxAttempts int) int
}

type pageReader interface {
	TextFromPage(page *rod.Page) string
}

type labelPlanner interface {
	ProposeLabel(ctx context.Context, pageText string, params llm.Params) (string, bool)
}

type elementClicker interface {
	ClickBestMatch(page *rod.Page, target string) bool
}

type recordSynthesizer interface {
	Structure(ctx context.Context, text string, params llm.Params) models.Record
}

// Pipeline holds the per-process components. It carries no per-request
// state: concurrent Extract calls each own their browser session.
type Pipeline struct {
	cfg        *config.Config
	planner    labelPlanner
	extractor  pageReader
	stabilizer pageStabilizer
	matcher    elementClicker
	synth      recordSynthesizer
	fetcher    *linkedin.Fetcher
	newSession func(config.BrowserConfig) (browserSession, error)
}

// New wires the pipeline components from config.
func New(cfg *config.Config, llmClient *llm.Client) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		planner:    planner.New(llmClient, cfg.Planner.Blacklist),
		extractor:  ocr.NewExtractor(cfg.OCR),
		stabilizer: scraper.NewStabilizer(cfg.Stabilizer),
		matcher:    scraper.NewMatcher(cfg.Matcher),
		synth:      synth.New(llmClient, cfg.Synth.MaxWords),
		fetcher:    linkedin.NewFetcher(cfg.LinkedIn.GuestAPIBase),
		newSession: func(bc config.BrowserConfig) (browserSession, error) {
			s, err := scraper.NewSession(bc)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

// Extract routes the URL to the right strategy and runs it to completion.
// LinkedIn postings go through the markup-aware fast path (no browser);
// everything else gets the full visual pipeline.
func (p *Pipeline) Extract(ctx context.Context, url string, params llm.Params) (rec models.Record) {
	// Whatever goes wrong below, the caller gets a Record.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline panic recovered", "url", url, "panic", r)
			rec = models.Failuref("internal extraction failure: %v", r)
		}
	}()

	if linkedin.IsJobURL(url) {
		slog.Info("routing to markup-aware fast path", "url", url)
		return p.extractLinkedIn(ctx, url, params)
	}
	slog.Info("routing to visual pipeline", "url", url)
	return p.extractVisual(ctx, url, params)
}

// extractLinkedIn fetches the posting via the guest API and structures the
// parsed description text. No browser is involved.
func (p *Pipeline) extractLinkedIn(ctx context.Context, url string, params llm.Params) models.Record {
	jobID, err := linkedin.ExtractJobID(url)
	if err != nil {
		slog.Warn("job ID extraction failed", "url", url, "error", err)
		return models.Failuref("Make sure your job link is correct: %s", url)
	}

	rawHTML, err := p.fetcher.FetchPosting(ctx, jobID)
	if err != nil {
		slog.Error("guest API fetch failed", "jobID", jobID, "error", err)
		return models.Failuref("Failed to fetch job posting %s: %v", jobID, err)
	}
	slog.Debug("posting fetched", "jobID", jobID, "title", linkedin.Title(rawHTML))

	text := linkedin.RelevantText(rawHTML, p.cfg.LinkedIn.MaxChars)
	return p.synth.Structure(ctx, text, params)
}

// extractVisual runs the full adaptive pipeline on a live browser page.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Launch          – engine fallback list, first success wins
//  2. DEFER: close    – browser torn down on every exit path
//  3. Navigate        – bounded wait, one relaxed retry
//  4. Close popups    – initial dismissal pass
//  5. Stabilize       – scroll-height fixed-point loop
//  6. OCR             – screenshot → preprocess → text
//  7. Expand          – LLM label proposal → fuzzy click → re-observe
//  8. Structure       – LLM structuring through the repair cascade
func (p *Pipeline) extractVisual(ctx context.Context, url string, params llm.Params) models.Record {
	// ── 1. Launch with engine fallback ──────────────────────────────
	session, err := p.newSession(p.cfg.Browser)
	if err != nil {
		slog.Error("all browser engines failed to launch", "error", err)
		return models.Failuref("Failed to launch any browser engine: %v", err)
	}
	slog.Info("browser session ready", "engine", session.Engine())

	// ── 2. CRITICAL DEFER: no exit path may leak the browser ────────
	defer session.Close()

	// ── 3. Navigate ─────────────────────────────────────────────────
	if err := session.Navigate(ctx, url); err != nil {
		slog.Error("navigation failed", "url", url, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return models.Failure("Page navigation timed out.")
		}
		return models.Failuref("Page navigation failed: %v", err)
	}

	page := session.Page()

	// ── 4. Initial popup closure ────────────────────────────────────
	closed := p.stabilizer.ClosePopups(page, p.cfg.Stabilizer.PopupAttempts)

	// ── 5. Scroll until the page height converges ───────────────────
	state := p.stabilizer.Settle(page)
	state.PopupsClosed = closed
	slog.Debug("page stabilized",
		"height", state.ScrollHeight,
		"attempts", state.Attempts,
		"popupsClosed", state.PopupsClosed)

	// ── 6. First observation ────────────────────────────────────────
	initialText := p.extractor.TextFromPage(page)
	if isBlank(initialText) {
		slog.Error("initial text extraction produced no text", "url", url)
		return models.Failure("Initial text extraction failed.")
	}

	// ── 7. Expansion: propose a label, click it, re-observe ─────────
	finalText := initialText
	if label, ok := p.planner.ProposeLabel(ctx, initialText, params); ok {
		if clicked := p.matcher.ClickBestMatch(page, label); clicked {
			p.stabilizer.Settle(page)
			expandedText := p.extractor.TextFromPage(page)
			if !isBlank(expandedText) {
				initialFP := textsig.Fingerprint(initialText)
				expandedFP := textsig.Fingerprint(expandedText)
				if textsig.Similar(initialFP, expandedFP, 3) {
					slog.Info("expansion click left page text nearly unchanged",
						"label", label,
						"contentDistance", textsig.Distance(initialFP, expandedFP))
				} else {
					slog.Info("expansion click changed page text",
						"label", label,
						"contentDistance", textsig.Distance(initialFP, expandedFP))
				}
				finalText = expandedText
			} else {
				slog.Warn("expanded text was empty, keeping initial text", "label", label)
			}
		}
	}

	if isBlank(finalText) {
		return models.Failure("No text content available after attempting to expand job description.")
	}

	// ── 8. Structure via LLM + repair cascade ───────────────────────
	return p.synth.Structure(ctx, finalText, params)
}

// isBlank matches the synthesizer's notion of empty input, so an observation
// of pure whitespace (including the form feeds Tesseract appends) fails fast
// here instead of reaching the structuring stage.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
