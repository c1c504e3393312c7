// Package summarizer condenses explanations and retrieved logs for display.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// FrequencySummarizer ranks sentences and terms by word frequency with
// stopwords filtered.
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	splitter     *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewFrequencySummarizer creates a frequency-based summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		splitter:     regexp.MustCompile(`[^.!?\n]+[.!?]?`),
		stopwords:    defaultStopwords(),
	}
}

// Summarize returns up to maxSentences of the highest scoring sentences in
// their original order. Line breaks end a sentence, so numbered model
// output is split per item.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 1
	}
	var sentences []string
	for _, t := range s.Sentences(text) {
		if s.hasWords(t) {
			sentences = append(sentences, t)
		}
	}
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := s.frequencies(sentences)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		// long sentences should not win on length alone
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " ")
}

// Sentences splits text at sentence punctuation and line breaks. Pieces are
// trimmed and blank ones dropped.
func (s *FrequencySummarizer) Sentences(text string) []string {
	var out []string
	for _, raw := range s.splitter.FindAllString(text, -1) {
		if t := strings.TrimSpace(raw); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// BestMatch returns the index of the sentence sharing the most distinct
// non-stopword terms with query. Earlier sentences win ties. It returns -1
// when no sentence shares a term.
func (s *FrequencySummarizer) BestMatch(sentences []string, query string) int {
	want := map[string]struct{}{}
	for _, tok := range s.tokens(query) {
		if _, stop := s.stopwords[tok]; !stop {
			want[tok] = struct{}{}
		}
	}
	best, bestScore := -1, 0
	for i, sent := range sentences {
		hits := map[string]struct{}{}
		for _, tok := range s.tokens(sent) {
			if _, ok := want[tok]; ok {
				hits[tok] = struct{}{}
			}
		}
		if len(hits) > bestScore {
			best, bestScore = i, len(hits)
		}
	}
	return best
}

// KeyTerms returns the n most frequent non-stopword terms across texts.
// Ties are broken alphabetically.
func (s *FrequencySummarizer) KeyTerms(texts []string, n int) []string {
	counts := map[string]int{}
	for _, t := range texts {
		for _, tok := range s.tokens(t) {
			if len([]rune(tok)) < 3 {
				continue
			}
			if _, stop := s.stopwords[tok]; stop {
				continue
			}
			counts[tok]++
		}
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if n > 0 && n < len(terms) {
		terms = terms[:n]
	}
	return terms
}

// frequencies returns per-token frequencies scaled so the most common
// token scores 1.
func (s *FrequencySummarizer) frequencies(sentences []string) map[string]float64 {
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	return freq
}

func (s *FrequencySummarizer) hasWords(text string) bool {
	return s.tokenPattern.MatchString(strings.ToLower(text))
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return s.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
