// Package planner asks a language model which on-page control is most
// likely to expand a truncated job description.
package planner

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/siddarth24/joblo/llm"
)

// noButtonSentinel is the phrase the prompt asks the model to emit when the
// page has no expansion control.
const noButtonSentinel = "no button found"

// labelPrompt instructs the model to emit bullet-point candidate labels.
const labelPrompt = `The following text was read from a rendered job listing page.

List only the phrases or button captions, in bullet points, that might be used to expand the full job description.

Guidelines:
- Put any repeated button text in a separate bullet point.
- Include labels such as 'Read More', 'See More', 'View Full Description', 'Expand Details', or similar terms.
- Do not include buttons related to cookies, settings, or other unrelated functionality.
- Return only the button labels without any additional explanation or context.
- Prioritize any label that clearly mentions viewing the job description.
- If there are no relevant buttons to expand the job description, return "no button found" as the top response without a bullet point.`

var (
	// bulletRe captures one bullet-prefixed label per line, tolerating
	// trailing dash/arrow decorations some models append.
	bulletRe = regexp.MustCompile(`(?m)^\s*[*•-]\s*(.+?)\s*(?:—|->|—>)?\s*$`)

	// decorationRe strips leftover dash/arrow decorations from a label.
	decorationRe = regexp.MustCompile(`\s*(?:—|->|—>)\s*$`)

	// vocabRe is the fallback when the model ignored the bullet format:
	// match a small fixed vocabulary of known expansion captions.
	vocabRe = regexp.MustCompile(`(?mi)^(Read More|See More|View Full Description|Expand Details|Show More)$`)
)

// Planner proposes a single expansion-control label from observed page text.
type Planner struct {
	client    *llm.Client
	blacklist []string
}

// New creates a Planner. The blacklist disqualifies candidates by
// case-insensitive substring match.
func New(client *llm.Client, blacklist []string) *Planner {
	return &Planner{client: client, blacklist: blacklist}
}

// ProposeLabel returns the most likely "show full description" control
// caption for the page text, or ok=false when no usable candidate exists.
// An LLM failure is treated as "no candidate" — expansion is best-effort.
func (p *Planner) ProposeLabel(ctx context.Context, pageText string, params llm.Params) (string, bool) {
	response, err := p.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: labelPrompt},
		{Role: "user", Content: pageText},
	}, params)
	if err != nil {
		slog.Warn("label proposal failed, skipping expansion", "error", err)
		return "", false
	}

	candidates := ParseCandidates(response)
	survivors := FilterBlacklist(candidates, p.blacklist)
	if len(survivors) == 0 {
		slog.Debug("no expansion label survived filtering", "candidates", len(candidates))
		return "", false
	}

	slog.Info("expansion label proposed", "label", survivors[0])
	return survivors[0], true
}

// ParseCandidates extracts candidate labels from a model response. Bulleted
// lines win; if none exist, the fixed expansion vocabulary is matched
// directly. The sentinel phrase yields no candidates.
func ParseCandidates(response string) []string {
	if strings.Contains(strings.ToLower(response), noButtonSentinel) {
		return nil
	}

	var candidates []string
	for _, m := range bulletRe.FindAllStringSubmatch(response, -1) {
		label := strings.TrimSpace(decorationRe.ReplaceAllString(m[1], ""))
		if label != "" {
			candidates = append(candidates, label)
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	if m := vocabRe.FindString(response); m != "" {
		return []string{strings.TrimSpace(m)}
	}
	return nil
}

// FilterBlacklist drops every candidate containing a blacklisted term,
// case-insensitive, preserving order.
func FilterBlacklist(candidates, blacklist []string) []string {
	var out []string
	for _, c := range candidates {
		lower := strings.ToLower(c)
		banned := false
		for _, term := range blacklist {
			if strings.Contains(lower, strings.ToLower(term)) {
				banned = true
				break
			}
		}
		if !banned {
			out = append(out, c)
		}
	}
	return out
}
