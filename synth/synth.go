// Package synth converts accumulated page text into a structured job record
// via a single language-model call, routed through the JSON repair cascade.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siddarth24/joblo/jsonrepair"
	"github.com/siddarth24/joblo/llm"
	"github.com/siddarth24/joblo/models"
)

// parseFailureMsg is the error message callers see when every repair stage
// is exhausted.
const parseFailureMsg = "Failed to parse JSON response."

const structuringPrompt = `Extract the job information from the following posting content, ensuring that you include all details without summarizing or omitting any listed responsibilities, requirements, or benefits.

Here is the job posting content:

%s

Ensure the response is a strictly valid JSON object with the posting's fields (such as title, company, location, description, requirements, benefits), and do not include any additional commentary or formatting outside the JSON object.`

// Synthesizer issues the structuring LLM call.
type Synthesizer struct {
	client   *llm.Client
	maxWords int
}

// New creates a Synthesizer. maxWords bounds the text handed to the model.
func New(client *llm.Client, maxWords int) *Synthesizer {
	return &Synthesizer{client: client, maxWords: maxWords}
}

// Structure turns plain text into a Record. Every outcome is a Record:
// empty input, LLM failure, and unparseable output all map to the error
// branch — the structuring call has no meaningful continuation, so its
// failures are terminal for the request.
func (s *Synthesizer) Structure(ctx context.Context, text string, params llm.Params) models.Record {
	if strings.TrimSpace(text) == "" {
		return models.Failure("No text extracted from the job posting.")
	}

	text = Truncate(text, s.maxWords)

	response, err := s.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(structuringPrompt, text)},
	}, params)
	if err != nil {
		slog.Error("structuring LLM call failed", "error", err)
		return models.Failuref("LLM invocation error: %v", err)
	}

	fields, err := jsonrepair.Parse(response)
	if err != nil {
		slog.Error("LLM response not parseable after repair cascade", "error", err)
		return models.Failure(parseFailureMsg)
	}
	return models.Success(fields)
}

// Truncate caps text at maxWords words, preserving the head. The head holds
// the title/company block on virtually every posting layout.
func Truncate(text string, maxWords int) string {
	if maxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	slog.Debug("text truncated to fit token budget", "words", len(words), "budget", maxWords)
	return strings.Join(words[:maxWords], " ")
}
