// Command joblo-extract runs a single extraction from the command line and
// prints the record as pretty JSON. Useful for local debugging without the
// HTTP server.
//
// Usage:
//
//	GROQ_API_KEY=... joblo-extract <url-or-job-id>
//
// A .env file in the working directory is loaded if present.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/siddarth24/joblo/config"
	"github.com/siddarth24/joblo/llm"
	"github.com/siddarth24/joblo/pipeline"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <url-or-job-id>\n", os.Args[0])
		os.Exit(2)
	}
	url := os.Args[1]

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "GROQ_API_KEY is required")
		os.Exit(2)
	}

	cfg := config.Load()

	// Log to stderr so stdout stays clean JSON.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	llmClient := llm.NewClient(&http.Client{Timeout: 120 * time.Second})
	p := pipeline.New(cfg, llmClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rec := p.Extract(ctx, url, llm.Params{
		APIKey:  apiKey,
		Model:   envOr("JOBLO_LLM_MODEL", "llama-3.3-70b-versatile"),
		BaseURL: envOr("JOBLO_LLM_BASE_URL", "https://api.groq.com/openai/v1"),
	})

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal record: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if rec.Failed() {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
