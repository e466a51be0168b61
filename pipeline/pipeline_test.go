package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-rod/rod"

	"github.com/siddarth24/joblo/config"
	"github.com/siddarth24/joblo/linkedin"
	"github.com/siddarth24/joblo/llm"
	"github.com/siddarth24/joblo/models"
	"github.com/siddarth24/joblo/scraper"
	"github.com/siddarth24/joblo/synth"
)

const samplePostingHTML = `<html><body>
<section class="show-more-less-html">
  <div class="show-more-less-html__markup">
    <p>We are hiring a Senior Go Engineer to build extraction pipelines.</p>
    <ul><li>5+ years of Go</li><li>Production browser automation</li></ul>
  </div>
</section>
<ul class="description__job-criteria-list">
  <li><h3>Seniority level</h3><span>Mid-Senior level</span></li>
</ul>
</body></html>`

func fakeLLM(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func fakeGuestAPI(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/jobPosting/") {
			t.Errorf("unexpected guest API path %q", r.URL.Path)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

// testPipeline wires just enough of the pipeline for the no-browser paths.
func testPipeline(llmBase string, fetcher *linkedin.Fetcher) (*Pipeline, llm.Params) {
	client := llm.NewClient(http.DefaultClient)
	p := &Pipeline{
		cfg:     config.Load(),
		synth:   synth.New(client, 5000),
		fetcher: fetcher,
	}
	return p, llm.Params{APIKey: "k", Model: "m", BaseURL: llmBase}
}

func TestExtract_LinkedInFastPath(t *testing.T) {
	guest := fakeGuestAPI(t, http.StatusOK, samplePostingHTML)
	defer guest.Close()
	srv := fakeLLM(t, `{"title": "Senior Go Engineer", "company": "Acme"}`)
	defer srv.Close()

	fetcher := linkedin.NewFetcherWithClient(guest.URL+"/jobPosting", guest.Client())
	p, params := testPipeline(srv.URL, fetcher)

	rec := p.Extract(context.Background(), "https://www.linkedin.com/jobs/view/4150892998/", params)

	fields, ok := rec.Fields()
	if !ok {
		t.Fatalf("expected success, got error: %s", rec.ErrMessage())
	}
	if fields["title"] != "Senior Go Engineer" {
		t.Errorf("title = %v, want Senior Go Engineer", fields["title"])
	}
}

func TestExtract_LinkedInURLWithoutJobID(t *testing.T) {
	p, params := testPipeline("http://unused", linkedin.NewFetcherWithClient("http://unused", http.DefaultClient))

	rec := p.Extract(context.Background(), "https://www.linkedin.com/feed/", params)

	if !rec.Failed() {
		t.Fatal("URL without a job ID must yield an error record")
	}
	if !strings.Contains(rec.ErrMessage(), "Make sure your job link is correct") {
		t.Errorf("unexpected error message: %q", rec.ErrMessage())
	}
}

func TestExtract_GuestAPIFailureIsErrorRecord(t *testing.T) {
	guest := fakeGuestAPI(t, http.StatusForbidden, "blocked")
	defer guest.Close()

	fetcher := linkedin.NewFetcherWithClient(guest.URL+"/jobPosting", guest.Client())
	p, params := testPipeline("http://unused", fetcher)

	rec := p.Extract(context.Background(), "4150892998", params)

	if !rec.Failed() {
		t.Fatal("guest API failure must yield an error record")
	}
	if !strings.Contains(rec.ErrMessage(), "Failed to fetch job posting") {
		t.Errorf("unexpected error message: %q", rec.ErrMessage())
	}
}

func TestExtract_PanicBecomesErrorRecord(t *testing.T) {
	// A nil fetcher makes the fast path panic; Extract must still return
	// a well-formed record.
	p, params := testPipeline("http://unused", nil)

	rec := p.Extract(context.Background(), "4150892998", params)

	if !rec.Failed() {
		t.Fatal("panic must be recovered into an error record")
	}
	if !strings.Contains(rec.ErrMessage(), "internal extraction failure") {
		t.Errorf("unexpected error message: %q", rec.ErrMessage())
	}
}

// --- visual-path fakes ---

type fakeSession struct {
	navErr error
	closed bool
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error { return s.navErr }
func (s *fakeSession) Page() *rod.Page                                { return nil }
func (s *fakeSession) Engine() string                                 { return "fake" }
func (s *fakeSession) Close()                                         { s.closed = true }

type fakeStabilizer struct {
	popupCeilings []int
}

func (f *fakeStabilizer) Settle(page *rod.Page) scraper.StabilizationState {
	return scraper.StabilizationState{ScrollHeight: 1200, Attempts: 1}
}

func (f *fakeStabilizer) ClosePopups(page *rod.Page, maxAttempts int) int {
	f.popupCeilings = append(f.popupCeilings, maxAttempts)
	return 0
}

// fakeReader returns one text per observation, then "".
type fakeReader struct {
	texts []string
	calls int
}

func (f *fakeReader) TextFromPage(page *rod.Page) string {
	if f.calls >= len(f.texts) {
		return ""
	}
	t := f.texts[f.calls]
	f.calls++
	return t
}

type fakePlanner struct {
	label string
	ok    bool
}

func (f fakePlanner) ProposeLabel(ctx context.Context, pageText string, params llm.Params) (string, bool) {
	return f.label, f.ok
}

type fakeClicker struct{ clicks bool }

func (f fakeClicker) ClickBestMatch(page *rod.Page, target string) bool { return f.clicks }

type fakeSynth struct {
	calls int
	text  string
}

func (f *fakeSynth) Structure(ctx context.Context, text string, params llm.Params) models.Record {
	f.calls++
	f.text = text
	return models.Success(map[string]any{"title": "Engineer"})
}

func visualPipeline(sess *fakeSession, stab *fakeStabilizer, reader *fakeReader, pl labelPlanner, click elementClicker, syn *fakeSynth) *Pipeline {
	return &Pipeline{
		cfg:        config.Load(),
		planner:    pl,
		extractor:  reader,
		stabilizer: stab,
		matcher:    click,
		synth:      syn,
		newSession: func(config.BrowserConfig) (browserSession, error) { return sess, nil },
	}
}

func TestExtractVisual_EmptyOCRShortCircuits(t *testing.T) {
	sess := &fakeSession{}
	syn := &fakeSynth{}
	// Tesseract noise: form feed and whitespace only.
	reader := &fakeReader{texts: []string{"\f \n"}}
	p := visualPipeline(sess, &fakeStabilizer{}, reader, fakePlanner{}, fakeClicker{}, syn)

	rec := p.Extract(context.Background(), "https://jobs.example.com/1", llm.Params{})

	if rec.ErrMessage() != "Initial text extraction failed." {
		t.Errorf("error = %q, want the initial-extraction failure", rec.ErrMessage())
	}
	if syn.calls != 0 {
		t.Errorf("structuring LLM called %d times for empty OCR, want 0", syn.calls)
	}
	if !sess.closed {
		t.Error("session must be closed on the empty-OCR path")
	}
}

func TestExtractVisual_NavigationTimeout(t *testing.T) {
	sess := &fakeSession{
		navErr: models.NewExtractError(models.ErrCodeNavigationTimeout,
			"navigation to target URL failed", context.DeadlineExceeded),
	}
	syn := &fakeSynth{}
	p := visualPipeline(sess, &fakeStabilizer{}, &fakeReader{}, fakePlanner{}, fakeClicker{}, syn)

	rec := p.Extract(context.Background(), "https://jobs.example.com/1", llm.Params{})

	if rec.ErrMessage() != "Page navigation timed out." {
		t.Errorf("error = %q, want the navigation-timeout failure", rec.ErrMessage())
	}
	if syn.calls != 0 {
		t.Error("structuring LLM must not run after a failed navigation")
	}
	if !sess.closed {
		t.Error("session must be closed after a failed navigation")
	}
}

func TestExtractVisual_ExpandedTextPreferred(t *testing.T) {
	sess := &fakeSession{}
	stab := &fakeStabilizer{}
	syn := &fakeSynth{}
	reader := &fakeReader{texts: []string{"short teaser", "full description with requirements"}}
	p := visualPipeline(sess, stab, reader,
		fakePlanner{label: "Read More", ok: true}, fakeClicker{clicks: true}, syn)

	rec := p.Extract(context.Background(), "https://jobs.example.com/1", llm.Params{})

	if rec.Failed() {
		t.Fatalf("expected success, got error: %s", rec.ErrMessage())
	}
	if syn.text != "full description with requirements" {
		t.Errorf("structured text = %q, want the expanded text", syn.text)
	}
	if got := stab.popupCeilings[0]; got != p.cfg.Stabilizer.PopupAttempts {
		t.Errorf("popup attempts = %d, want configured %d", got, p.cfg.Stabilizer.PopupAttempts)
	}
	if !sess.closed {
		t.Error("session must be closed after a successful run")
	}
}

func TestExtractVisual_BlankExpansionKeepsInitialText(t *testing.T) {
	syn := &fakeSynth{}
	reader := &fakeReader{texts: []string{"initial description", "  \f "}}
	p := visualPipeline(&fakeSession{}, &fakeStabilizer{}, reader,
		fakePlanner{label: "See More", ok: true}, fakeClicker{clicks: true}, syn)

	rec := p.Extract(context.Background(), "https://jobs.example.com/1", llm.Params{})

	if rec.Failed() {
		t.Fatalf("expected success, got error: %s", rec.ErrMessage())
	}
	if syn.text != "initial description" {
		t.Errorf("structured text = %q, want the initial text", syn.text)
	}
}

func TestExtractVisual_LaunchFailure(t *testing.T) {
	syn := &fakeSynth{}
	p := visualPipeline(&fakeSession{}, &fakeStabilizer{}, &fakeReader{}, fakePlanner{}, fakeClicker{}, syn)
	p.newSession = func(config.BrowserConfig) (browserSession, error) {
		return nil, models.NewExtractError(models.ErrCodeBrowserUnavailable,
			"failed to launch any browser engine", nil)
	}

	rec := p.Extract(context.Background(), "https://jobs.example.com/1", llm.Params{})

	if !rec.Failed() {
		t.Fatal("launch failure must yield an error record")
	}
	if !strings.Contains(rec.ErrMessage(), "Failed to launch any browser engine") {
		t.Errorf("unexpected error message: %q", rec.ErrMessage())
	}
}

func TestExtract_RecordShape(t *testing.T) {
	p, params := testPipeline("http://unused", linkedin.NewFetcherWithClient("http://unused", http.DefaultClient))

	rec := p.Extract(context.Background(), "https://www.linkedin.com/feed/", params)

	m := rec.AsMap()
	if _, ok := m["error"]; !ok {
		t.Error("error records must expose exactly an error key")
	}
	if len(m) != 1 {
		t.Errorf("error record has %d keys, want 1", len(m))
	}
}
