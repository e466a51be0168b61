// Command joblo-mcp exposes the extraction API as an MCP stdio server, so
// agent clients can pull structured job postings through a single tool call.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// extractRequest mirrors the joblo API request model.
type extractRequest struct {
	URL           string `json:"url"`
	LLMAPIKey     string `json:"llm_api_key"`
	LLMModel      string `json:"llm_model,omitempty"`
	LLMBaseURL    string `json:"llm_base_url,omitempty"`
	CacheMaxAgeMs int    `json:"cache_max_age_ms,omitempty"`
}

// extractResponse mirrors the joblo API response model.
type extractResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Cached  bool            `json:"cached"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("JOBLO_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("JOBLO_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "JOBLO_API_KEY is required")
		os.Exit(1)
	}
	llmAPIKey := os.Getenv("JOBLO_LLM_API_KEY")

	s := server.NewMCPServer(
		"joblo",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractJobTool := mcp.NewTool("extract_job",
		mcp.WithDescription("Extract a structured job posting (title, company, location, description, requirements) from a job URL. Handles LinkedIn links, bare LinkedIn job IDs, and arbitrary job boards via a visual browser pipeline."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The job posting URL, or a bare LinkedIn job ID"),
		),
		mcp.WithString("llm_api_key",
			mcp.Description("API key for the LLM service (OpenAI-compatible). Falls back to the JOBLO_LLM_API_KEY environment variable."),
		),
		mcp.WithString("llm_model",
			mcp.Description("LLM model to use (default: 'llama-3.3-70b-versatile')"),
		),
		mcp.WithNumber("cache_max_age_ms",
			mcp.Description("Accept a cached record up to this many milliseconds old (default: 0, always extract fresh)"),
		),
	)

	s.AddTool(extractJobTool, handleExtractJob(apiURL, apiKey, llmAPIKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleExtractJob(apiURL, apiKey, defaultLLMKey string) server.ToolHandlerFunc {
	// Extractions can hold a browser for a while; be generous.
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		llmKey := request.GetString("llm_api_key", defaultLLMKey)
		if llmKey == "" {
			return mcp.NewToolResultError("llm_api_key is required (or set JOBLO_LLM_API_KEY)"), nil
		}

		reqBody := extractRequest{
			URL:       url,
			LLMAPIKey: llmKey,
			LLMModel:  request.GetString("llm_model", ""),
		}
		if maxAge := request.GetFloat("cache_max_age_ms", 0); maxAge > 0 {
			reqBody.CacheMaxAgeMs = int(maxAge)
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/extract", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var extResp extractResponse
		if err := json.Unmarshal(respBody, &extResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if extResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", extResp.Error.Code, extResp.Error.Message)), nil
		}

		// Extraction failures ride inside data as {"error": ...}; pass them
		// through verbatim so the agent sees exactly what went wrong.
		var prettyData bytes.Buffer
		if err := json.Indent(&prettyData, extResp.Data, "", "  "); err != nil {
			prettyData.Write(extResp.Data)
		}

		result := prettyData.String()
		if extResp.Cached {
			result += "\n\n(served from cache)"
		}

		return mcp.NewToolResultText(result), nil
	}
}
