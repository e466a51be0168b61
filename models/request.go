package models

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the job-posting URL (or, for LinkedIn, a bare numeric job ID). Required.
	URL string `json:"url" binding:"required"`

	// LLMAPIKey is the user's own LLM API key (BYOK). Required.
	LLMAPIKey string `json:"llm_api_key" binding:"required"`

	// LLMModel is the model used for label proposal and structuring.
	// Default: "llama-3.3-70b-versatile".
	LLMModel string `json:"llm_model,omitempty"`

	// LLMBaseURL is the base URL for the LLM API. Default:
	// "https://api.groq.com/openai/v1". Supports any OpenAI-compatible API.
	LLMBaseURL string `json:"llm_base_url,omitempty"`

	// CacheMaxAgeMs is the maximum acceptable age of a cached record in
	// milliseconds. 0 disables cache lookup for this request.
	CacheMaxAgeMs int `json:"cache_max_age_ms,omitempty"`

	// Timeout is the maximum duration in seconds for the whole extraction.
	// Default: 90. Max: 300.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`
}

// Defaults applies default values to unset fields.
func (r *ExtractRequest) Defaults() {
	if r.LLMModel == "" {
		r.LLMModel = "llama-3.3-70b-versatile"
	}
	if r.LLMBaseURL == "" {
		r.LLMBaseURL = "https://api.groq.com/openai/v1"
	}
	if r.Timeout == 0 {
		r.Timeout = 90
	}
}

// ExtractResponse is the response for POST /api/v1/extract.
//
// Pipeline failures are carried inside Data as {"error": ...} with
// Success=false; they are data, not HTTP errors. Error is populated only
// for request-level failures (validation, auth, rate limits).
type ExtractResponse struct {
	// Success indicates whether Data carries posting fields.
	Success bool `json:"success"`

	// Data is the structured record (fields map, or {"error": ...}).
	Data map[string]any `json:"data,omitempty"`

	// Cached indicates the record was served from the result cache.
	Cached bool `json:"cached,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only for request-level failures.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo reports duration breakdowns in milliseconds.
type TimingInfo struct {
	TotalMs    int64 `json:"total_ms"`
	PipelineMs int64 `json:"pipeline_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
