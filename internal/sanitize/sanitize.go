// Package sanitize redacts known prompt-injection phrases from untrusted text
// before it is placed in a model prompt.
//
// Matching is pattern based and therefore incomplete against adaptive
// injection attempts. It is one layer of defense, not a security boundary.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMarker replaces every redacted span.
const DefaultMarker = "[REMOVED]"

// DefaultPatterns are the phrases redacted when no others are configured.
// Matching is case-insensitive and any run of whitespace between words
// matches.
var DefaultPatterns = []string{
	"ignore previous instructions",
	"ignore all previous instructions",
	"disregard above",
	"disregard previous instructions",
	"you are chatgpt",
	"you are an ai assistant",
	"system prompt",
	"act as",
	"follow these steps",
}

// Sanitizer replaces matches of its phrase list with a fixed marker.
// It is safe for concurrent use.
type Sanitizer struct {
	marker   string
	patterns []string
	re       *regexp.Regexp
}

// New compiles phrases into a single case-insensitive matcher. An empty
// marker selects DefaultMarker.
func New(phrases []string, marker string) (*Sanitizer, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	if strings.ContainsAny(marker, "\r\n") {
		return nil, errors.New("marker must be a single line")
	}
	alts := make([]string, 0, len(phrases))
	kept := make([]string, 0, len(phrases))
	for _, p := range phrases {
		words := strings.Fields(p)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alts = append(alts, strings.Join(words, `\s+`))
		kept = append(kept, strings.Join(strings.Fields(p), " "))
	}
	s := &Sanitizer{marker: marker, patterns: kept}
	if len(alts) == 0 {
		return s, nil
	}
	re, err := regexp.Compile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile patterns: %w", err)
	}
	if re.MatchString(marker) {
		return nil, fmt.Errorf("marker %q matches a redacted phrase", marker)
	}
	s.re = re
	return s, nil
}

// Default returns a sanitizer over DefaultPatterns and DefaultMarker.
func Default() *Sanitizer {
	s, err := New(DefaultPatterns, DefaultMarker)
	if err != nil {
		panic(err)
	}
	return s
}

// Sanitize returns text with every phrase match replaced by the marker.
// It never fails and is idempotent.
func (s *Sanitizer) Sanitize(text string) string {
	if s.re == nil || text == "" {
		return text
	}
	return s.re.ReplaceAllLiteralString(text, s.marker)
}

// Marker returns the replacement string.
func (s *Sanitizer) Marker() string { return s.marker }

// Patterns returns the normalized phrase list.
func (s *Sanitizer) Patterns() []string {
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}
