// Package parse recovers a canonical room list from the raw text of a
// generative model. Normalize isolates the most likely JSON payload;
// ParseRooms parses and coerces it. The repair heuristics live behind
// these two functions so stricter parsers can be substituted without
// touching the layout solver.
package parse

import (
	"regexp"
	"strings"
)

var (
	// Reasoning models wrap chain-of-thought in tag pairs. Both
	// observed variants are stripped before any JSON hunting.
	thinkRe    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkingRe = regexp.MustCompile(`(?is)<thinking>.*?</thinking>`)

	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// Normalize strips generator chatter from a raw response and returns a
// best-effort JSON-parseable string. It never fails; if no better
// candidate is found the (trimmed) input comes back unchanged and the
// parser decides.
func Normalize(raw string) string {
	s := thinkRe.ReplaceAllString(raw, "")
	s = thinkingRe.ReplaceAllString(s, "")

	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if start := strings.Index(s, "{"); start >= 0 {
		// No code fence: take the widest object span.
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	s = strings.ReplaceAll(s, "'", `"`)
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
