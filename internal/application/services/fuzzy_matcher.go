package services

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

const (
	minTokenRunes      = 3
	maxMatchesPerToken = 3
)

// FuzzyEntityMatcher proposes likely catalog values for misspelled names and
// places in a question. Its output is advisory: it feeds prompt hints and
// zero-row suggestions, never query construction directly.
type FuzzyEntityMatcher struct {
	threshold float64
}

// NewFuzzyEntityMatcher creates a matcher with the given similarity
// threshold in [0,1].
func NewFuzzyEntityMatcher(threshold float64) *FuzzyEntityMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	return &FuzzyEntityMatcher{threshold: threshold}
}

// Match scores each question token against the known values of each field and
// accumulates up to three candidates per token at or above the threshold.
// Candidates are returned in the original casing of the catalog value.
func (m *FuzzyEntityMatcher) Match(question string, known map[entities.MatchField][]string) entities.EntityMatchSet {
	matches := entities.EntityMatchSet{}

	tokens := tokenize(question)
	if len(tokens) == 0 {
		return matches
	}

	for field, values := range known {
		// Lower-cased comparison with a map back to one original-case
		// representative; case variants of a value collapse together.
		originals := make(map[string]string, len(values))
		lowered := make([]string, 0, len(values))
		for _, v := range values {
			lv := strings.ToLower(v)
			if _, seen := originals[lv]; !seen {
				originals[lv] = v
				lowered = append(lowered, lv)
			}
		}

		for _, token := range tokens {
			for _, candidate := range m.closest(token, lowered) {
				matches[field] = append(matches[field], originals[candidate])
			}
		}
	}

	return matches
}

type scoredValue struct {
	value string
	score float64
}

// closest returns up to three known values at or above the threshold,
// best first.
func (m *FuzzyEntityMatcher) closest(token string, values []string) []string {
	scored := make([]scoredValue, 0, maxMatchesPerToken)
	for _, v := range values {
		score := similarity(token, v)
		if score >= m.threshold {
			scored = append(scored, scoredValue{value: v, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > maxMatchesPerToken {
		scored = scored[:maxMatchesPerToken]
	}

	result := make([]string, 0, len(scored))
	for _, s := range scored {
		result = append(result, s.value)
	}
	return result
}

// similarity maps edit distance into a [0,1] ratio relative to the longer
// string. Identical strings score 1.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// tokenize splits on whitespace, lower-cases, and drops short noise tokens.
func tokenize(question string) []string {
	fields := strings.Fields(strings.ToLower(question))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?؟،\"'()")
		if utf8.RuneCountInString(f) >= minTokenRunes {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
