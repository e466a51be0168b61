package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Stabilizer StabilizerConfig
	OCR        OCRConfig
	Planner    PlannerConfig
	Matcher    MatcherConfig
	Synth      SynthConfig
	LinkedIn   LinkedInConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls browser launch and navigation.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// EngineBins is the ordered list of browser binary paths to try after
	// the bundled Chromium. Empty entries are skipped.
	EngineBins []string // default: ["/usr/bin/google-chrome", "/usr/bin/chromium"]

	// Stealth enables anti-bot-detection JS injection before navigation.
	Stealth bool // default: true

	// NavTimeout is the deadline for the primary navigation attempt.
	NavTimeout time.Duration // default: 30s

	// NavRetryTimeout is the deadline for the single relaxed retry.
	NavRetryTimeout time.Duration // default: 60s
}

// StabilizerConfig controls the scroll-convergence and popup-dismissal loops.
type StabilizerConfig struct {
	// MaxScrolls bounds the scroll-convergence loop.
	MaxScrolls int // default: 10

	// SettleDelay is the pause after each scroll increment.
	SettleDelay time.Duration // default: 1s

	// PopupSelectors is the list of CSS selectors tried when closing popups.
	PopupSelectors []string

	// PopupAttempts bounds the popup-dismissal passes before the first
	// observation.
	PopupAttempts int // default: 2
}

// OCRConfig controls screenshot preprocessing and text recognition.
type OCRConfig struct {
	// ContrastBoost is the contrast adjustment percentage applied before OCR.
	ContrastBoost float64 // default: 50

	// UpscaleFactor enlarges the screenshot to help OCR on small fonts.
	UpscaleFactor float64 // default: 1.5

	// BinaryThreshold is the grayscale cutoff (0-255) for binarization.
	BinaryThreshold uint8 // default: 150

	// Language is the Tesseract language model.
	Language string // default: "eng"
}

// PlannerConfig controls expansion-label proposal.
type PlannerConfig struct {
	// Blacklist terms; any candidate containing one (case-insensitive) is dropped.
	Blacklist []string
}

// MatcherConfig controls fuzzy element matching.
type MatcherConfig struct {
	// Threshold is the minimum similarity score required to click.
	Threshold float64 // default: 0.7

	// WaitTimeout bounds the wait for clickable elements to appear.
	WaitTimeout time.Duration // default: 10s

	// ClickSettle is the pause after a successful click.
	ClickSettle time.Duration // default: 2s
}

// SynthConfig controls LLM structuring of extracted text.
type SynthConfig struct {
	// MaxWords truncates pipeline text before the structuring call.
	MaxWords int // default: 5000
}

// LinkedInConfig controls the markup-aware fast path.
type LinkedInConfig struct {
	// GuestAPIBase is the base URL of the public job-posting endpoint.
	GuestAPIBase string // default: "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting"

	// MaxChars caps the relevant text handed to the LLM.
	MaxChars int // default: 10000
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// defaultPopupSelectors covers the common close-control patterns seen on
// job boards: class-based close buttons, ARIA labels, and modal dismissers.
var defaultPopupSelectors = []string{
	"button.close",
	`button[aria-label="Close"]`,
	".modal-close",
	".popup-close",
	".close-button",
	".dialog-close",
	`button[data-dismiss="modal"]`,
}

// defaultBlacklist lists terms that disqualify a proposed expansion label.
var defaultBlacklist = []string{
	"cookie",
	"settings",
	"privacy",
	"consent",
	"dismiss",
	"view job",
	"viewjob",
	"get started",
	"reviews",
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("JOBLO_HOST", "0.0.0.0"),
			Port: envIntOr("JOBLO_PORT", 8080),
			Mode: envOr("JOBLO_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:  envBoolOr("JOBLO_HEADLESS", true),
			NoSandbox: envBoolOr("JOBLO_NO_SANDBOX", false),
			EngineBins: envSliceOr("JOBLO_ENGINE_BINS", []string{
				"/usr/bin/google-chrome", "/usr/bin/chromium",
			}),
			Stealth:         envBoolOr("JOBLO_STEALTH", true),
			NavTimeout:      envDurationOr("JOBLO_NAV_TIMEOUT", 30*time.Second),
			NavRetryTimeout: envDurationOr("JOBLO_NAV_RETRY_TIMEOUT", 60*time.Second),
		},
		Stabilizer: StabilizerConfig{
			MaxScrolls:     envIntOr("JOBLO_MAX_SCROLLS", 10),
			SettleDelay:    envDurationOr("JOBLO_SETTLE_DELAY", time.Second),
			PopupSelectors: envSliceOr("JOBLO_POPUP_SELECTORS", defaultPopupSelectors),
			PopupAttempts:  envIntOr("JOBLO_POPUP_ATTEMPTS", 2),
		},
		OCR: OCRConfig{
			ContrastBoost:   envFloatOr("JOBLO_OCR_CONTRAST", 50),
			UpscaleFactor:   envFloatOr("JOBLO_OCR_UPSCALE", 1.5),
			BinaryThreshold: uint8(envIntOr("JOBLO_OCR_THRESHOLD", 150)),
			Language:        envOr("JOBLO_OCR_LANG", "eng"),
		},
		Planner: PlannerConfig{
			Blacklist: envSliceOr("JOBLO_LABEL_BLACKLIST", defaultBlacklist),
		},
		Matcher: MatcherConfig{
			Threshold:   envFloatOr("JOBLO_MATCH_THRESHOLD", 0.7),
			WaitTimeout: envDurationOr("JOBLO_MATCH_WAIT", 10*time.Second),
			ClickSettle: envDurationOr("JOBLO_CLICK_SETTLE", 2*time.Second),
		},
		Synth: SynthConfig{
			MaxWords: envIntOr("JOBLO_MAX_WORDS", 5000),
		},
		LinkedIn: LinkedInConfig{
			GuestAPIBase: envOr("JOBLO_LINKEDIN_API", "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting"),
			MaxChars:     envIntOr("JOBLO_LINKEDIN_MAX_CHARS", 10000),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("JOBLO_AUTH_ENABLED", true),
			APIKeys: envSliceOr("JOBLO_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("JOBLO_RATE_RPS", 2.0),
			Burst:             envIntOr("JOBLO_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("JOBLO_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("JOBLO_LOG_LEVEL", "info"),
			Format: envOr("JOBLO_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
