// Package jsonrepair coerces a language model's free-text response into a
// parseable JSON object.
//
// LLM "JSON" fails in recurring ways: prose around the object, thousands
// separators inside numbers, unquoted keys, trailing commas, and doubly
// escaped quotes around keys. No single regex repairs all of them, so the
// package applies an ordered cascade of pure string transforms and parses
// after the cleanup. Every stage is idempotent, which keeps the cascade
// itself idempotent: repairing already-repaired output is a no-op.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/siddarth24/joblo/models"
)

var (
	// jsonBlockRe greedily captures the first {...} block, spanning newlines,
	// so leading and trailing prose is dropped.
	jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

	// thousandsRe matches a comma wedged between two digits (e.g. "3,500").
	thousandsRe = regexp.MustCompile(`(\d),(\d)`)

	// bareKeyRe matches an unquoted identifier-style key after {, [ or ,.
	bareKeyRe = regexp.MustCompile(`([{\[,]\s*)([A-Za-z0-9_]+)\s*:`)

	// trailingCommaRe matches a comma directly before a closing } or ].
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

	// escapedKeyRe matches a key wrapped in stray backslash-escaped quotes,
	// e.g. \"company\": instead of "company":. Each backslash sits before
	// its quote and is optional, so already-clean keys rewrite to themselves.
	escapedKeyRe = regexp.MustCompile(`\\?"([^"\\]+)\\?"\s*:`)
)

// Repair extracts the first JSON object block from raw and normalizes the
// malformations listed above. It does not guarantee the result parses; it
// returns an error only when no object-like block exists at all.
func Repair(raw string) (string, error) {
	block := jsonBlockRe.FindString(raw)
	if block == "" {
		return "", models.NewExtractError(models.ErrCodeJSONParse,
			"no JSON object-like block found in response", nil)
	}

	block = stripThousandsCommas(block)
	block = quoteBareKeys(block)
	block = stripTrailingCommas(block)
	block = fixEscapedKeys(block)

	return block, nil
}

// Parse runs the full cascade: a direct parse of the whole response first,
// then Repair followed by a parse of the cleaned block. The top-level value
// must be an object.
func Parse(raw string) (map[string]any, error) {
	if obj, ok := tryParseObject(raw); ok {
		return obj, nil
	}

	cleaned, err := Repair(raw)
	if err != nil {
		return nil, err
	}

	obj, ok := tryParseObject(cleaned)
	if !ok {
		return nil, models.NewExtractError(models.ErrCodeJSONParse,
			"response not parseable after repair", nil)
	}
	return obj, nil
}

func tryParseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// stripThousandsCommas removes separator commas between digit runs. Applied
// repeatedly because each pass collapses one comma per digit pair ("1,234,567").
func stripThousandsCommas(s string) string {
	for {
		next := thousandsRe.ReplaceAllString(s, "$1$2")
		if next == s {
			return s
		}
		s = next
	}
}

// quoteBareKeys wraps identifier-style keys in double quotes.
func quoteBareKeys(s string) string {
	return bareKeyRe.ReplaceAllString(s, `$1"$2":`)
}

// stripTrailingCommas drops commas that directly precede a closing bracket.
func stripTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// fixEscapedKeys rewrites \"key\": as "key": until a fixed point is reached.
// A single pass can leave adjacent malformed keys untouched, so it loops.
func fixEscapedKeys(s string) string {
	for {
		next := escapedKeyRe.ReplaceAllString(s, `"$1":`)
		if next == s {
			return s
		}
		s = next
	}
}
