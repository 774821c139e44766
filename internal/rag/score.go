package rag

import "strings"

// Scoring constants.
const (
	// minTokenLen drops query tokens too short to carry signal ("a", "to").
	minTokenLen = 3

	// tfCap bounds the term-frequency contribution; repeating one term past
	// this point must not beat matching more distinct terms.
	tfCap = 3

	// importantTermBonus rewards terms from the curated domain vocabulary.
	importantTermBonus = 3.0

	// proximityWindow and proximityBonus reward query terms co-occurring
	// within a character window, a cheap proxy for phrase relevance.
	proximityWindow = 100
	proximityBonus  = 0.5
)

// defaultImportantTerms is the curated support vocabulary: a query hitting
// one of these terms is almost certainly about that topic, so matching
// chunks get a fixed boost.
var defaultImportantTerms = []string{
	"refund", "pricing", "cancel", "payment", "api",
	"key", "start", "tier", "plan", "included",
}

// Scorer computes a lexical relevance score for (query, chunk) pairs.
// Stateless after construction and safe for concurrent use.
type Scorer struct {
	important map[string]struct{}
}

// NewScorer creates a scorer with the given domain-important terms.
// A nil or empty list selects the default support vocabulary.
func NewScorer(terms []string) *Scorer {
	if len(terms) == 0 {
		terms = defaultImportantTerms
	}
	important := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		important[strings.ToLower(t)] = struct{}{}
	}
	return &Scorer{important: important}
}

// Score computes the relevance of chunk to query.
//
// Per matched query term: min(frequency, tfCap) term-frequency contribution,
// plus importantTermBonus when the term is in the curated vocabulary, plus
// proximityBonus for every other query term occurring within proximityWindow
// characters. The raw sum is scaled by the matched-terms ratio and divided by
// the query length, so chunks matching more distinct terms outrank chunks
// repeating one term.
//
// Returns exactly 0 for an empty query or one with no usable tokens.
func (s *Scorer) Score(query string, chunk Chunk) float64 {
	terms := tokenize(query)
	if len(terms) == 0 {
		return 0
	}

	content := strings.ToLower(chunk.Text)

	var score float64
	matched := 0

	for _, term := range terms {
		freq := strings.Count(content, term)
		if freq == 0 {
			continue
		}
		matched++

		score += float64(min(freq, tfCap))

		if _, ok := s.important[term]; ok {
			score += importantTermBonus
		}

		// First occurrences only: good enough for a co-occurrence signal
		// and keeps scoring linear in the chunk length.
		idx := strings.Index(content, term)
		for _, other := range terms {
			if other == term {
				continue
			}
			otherIdx := strings.Index(content, other)
			if otherIdx >= 0 && absInt(otherIdx-idx) < proximityWindow {
				score += proximityBonus
			}
		}
	}

	matchRatio := float64(matched) / float64(len(terms))
	return score * matchRatio / float64(max(len(terms), 1))
}

// tokenize lowercases the query, splits on whitespace, and drops tokens
// shorter than minTokenLen.
func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			terms = append(terms, f)
		}
	}
	return terms
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
