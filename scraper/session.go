// Package scraper owns the live browser session for one extraction request:
// launching with engine fallback, navigation, page stabilization, and fuzzy
// element clicking. A Session is never shared across requests and is closed
// on every exit path.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/siddarth24/joblo/config"
	"github.com/siddarth24/joblo/models"
)

// LaunchStrategy describes one way to bring up a browser. Strategies are
// tried in order; the first successful launch serves the whole request.
type LaunchStrategy struct {
	// Name identifies the strategy in logs.
	Name string

	// Bin is the browser binary path. Empty means the Rod-managed Chromium.
	Bin string
}

// Strategies builds the ordered launch list: the managed Chromium first,
// then each configured system binary.
func Strategies(cfg config.BrowserConfig) []LaunchStrategy {
	out := []LaunchStrategy{{Name: "chromium"}}
	for _, bin := range cfg.EngineBins {
		if bin != "" {
			out = append(out, LaunchStrategy{Name: bin, Bin: bin})
		}
	}
	return out
}

// DialogDecision is the answer to a JS dialog raised by the page.
type DialogDecision struct {
	Accept     bool
	PromptText string
}

// DialogHandler decides how to answer a page dialog given its kind
// ("alert", "confirm", "prompt", "beforeunload") and message.
type DialogHandler func(kind, message string) DialogDecision

// DismissAll is the default DialogHandler: it dismisses every dialog so a
// stray alert() can never hang the automation.
func DismissAll(kind, message string) DialogDecision {
	slog.Info("dialog auto-dismissed", "kind", kind, "message", message)
	return DialogDecision{Accept: false}
}

// Session is a live, navigated browser page owned by a single request.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	engine   string
	cfg      config.BrowserConfig
	dialogs  DialogHandler
}

// NewSession launches a headless browser, trying each strategy in order.
// If every strategy fails, it returns BROWSER_UNAVAILABLE — an environment
// problem, not a transient one, so callers must not retry.
func NewSession(cfg config.BrowserConfig) (*Session, error) {
	var lastErr error
	for _, strat := range Strategies(cfg) {
		s, err := launchOne(cfg, strat)
		if err != nil {
			slog.Warn("browser launch failed, trying next engine",
				"engine", strat.Name, "error", err)
			lastErr = err
			continue
		}
		slog.Info("browser launched", "engine", strat.Name)
		return s, nil
	}
	return nil, models.NewExtractError(models.ErrCodeBrowserUnavailable,
		"failed to launch any browser engine", lastErr)
}

// launchOne attempts a single strategy: launch, connect, create the page,
// and register the dialog watcher. Any failure tears down what was started.
func launchOne(cfg config.BrowserConfig, strat LaunchStrategy) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if strat.Bin != "" {
		l = l.Bin(strat.Bin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, err
	}

	s := &Session{
		browser:  browser,
		launcher: l,
		page:     page,
		engine:   strat.Name,
		cfg:      cfg,
		dialogs:  DismissAll,
	}
	s.watchDialogs()
	return s, nil
}

// OnDialog replaces the dialog handler. Must be called before Navigate.
func (s *Session) OnDialog(h DialogHandler) {
	if h != nil {
		s.dialogs = h
	}
}

// watchDialogs registers the CDP listener that routes every JS dialog
// through the session's handler. Registered at session creation so dialogs
// raised during navigation are already covered.
func (s *Session) watchDialogs() {
	page := s.page
	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		d := s.dialogs(string(e.Type), e.Message)
		err := proto.PageHandleJavaScriptDialog{
			Accept:     d.Accept,
			PromptText: d.PromptText,
		}.Call(page)
		if err != nil {
			slog.Warn("failed to answer page dialog", "error", err)
		}
	})()
}

// Page returns the live page handle for downstream stages.
func (s *Session) Page() *rod.Page {
	return s.page
}

// Engine returns the name of the launch strategy that won.
func (s *Session) Engine() string {
	return s.engine
}

// extraHeaders are sent on every request so the page sees a realistic
// desktop client rather than bare automation defaults.
var extraHeaders = map[string]string{
	"Accept-Language": "en-US,en;q=0.9",
}

// Navigate loads the target URL with the primary wait strategy, retrying
// once with a looser wait and a longer timeout before giving up with
// NAVIGATION_TIMEOUT.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)

	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(extraHeaders)}).Call(p); err != nil {
		slog.Debug("failed to set extra headers", "error", err)
	}

	if s.cfg.Stealth {
		if _, err := p.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	router := blockAdRequests(p)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	err := s.navigateSettled(p, url, s.cfg.NavTimeout)
	if err == nil {
		return nil
	}

	slog.Warn("navigation did not settle, retrying with relaxed wait",
		"url", url, "error", err)

	if err := s.navigateRelaxed(p, url, s.cfg.NavRetryTimeout); err != nil {
		return categorizeNavError(err, "navigation to target URL failed")
	}
	return nil
}

// navigateSettled is the primary attempt: navigate and wait for the DOM to
// stop mutating, all under one deadline.
func (s *Session) navigateSettled(p *rod.Page, url string, timeout time.Duration) error {
	p = p.Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitDOMStable(300*time.Millisecond, 0.1)
}

// navigateRelaxed is the retry: navigate under the longer deadline and
// accept whatever DOM exists after a short grace period.
func (s *Session) navigateRelaxed(p *rod.Page, url string, timeout time.Duration) error {
	p = p.Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		slog.Debug("load event not reached, proceeding with current DOM", "error", err)
	}
	return nil
}

// Close tears down the page, browser, and launched process. Safe to call
// multiple times; called on every request exit path.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher = nil
	}
	slog.Debug("browser session closed", "engine", s.engine)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeNavError wraps raw navigation errors into typed ExtractErrors.
func categorizeNavError(err error, msg string) *models.ExtractError {
	if errors.Is(err, context.Canceled) {
		return models.NewExtractError(models.ErrCodeNavigationTimeout, "request canceled", err)
	}
	return models.NewExtractError(models.ErrCodeNavigationTimeout, msg, err)
}
