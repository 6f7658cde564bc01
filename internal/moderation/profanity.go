// Package moderation holds the default text-analysis strategies behind
// core.Cleaner and core.Scorer. Both are deliberately small and pure;
// deployments with a real analysis service swap them at wiring time.
package moderation

import (
	"strings"
	"unicode/utf8"
)

// defaultBlocklist is the built-in set of masked terms, matched
// case-insensitively on whole words.
var defaultBlocklist = []string{
	"damn", "hell", "crap", "idiot", "moron", "stupid", "jerk", "loser",
}

// WordlistCleaner masks blocklisted words with asterisks, preserving
// word length so message shape survives the scrub. Scrubbing is
// idempotent: cleaning already-cleaned text changes nothing.
type WordlistCleaner struct {
	blocked map[string]struct{}
}

func NewWordlistCleaner(words ...string) *WordlistCleaner {
	if len(words) == 0 {
		words = defaultBlocklist
	}
	blocked := make(map[string]struct{}, len(words))
	for _, w := range words {
		blocked[strings.ToLower(w)] = struct{}{}
	}
	return &WordlistCleaner{blocked: blocked}
}

func (c *WordlistCleaner) Clean(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrBadEncoding
	}
	fields := strings.Split(text, " ")
	changed := false
	for i, f := range fields {
		word := strings.ToLower(strings.Trim(f, ".,!?;:\"'"))
		if _, hit := c.blocked[word]; hit {
			fields[i] = strings.Replace(f, strings.Trim(f, ".,!?;:\"'"), strings.Repeat("*", len(word)), 1)
			changed = true
		}
	}
	if !changed {
		return text, nil
	}
	return strings.Join(fields, " "), nil
}
