package evaluation

import (
	"time"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

// GoldenCase is one labeled utterance with its expected outcomes.
type GoldenCase struct {
	ID string `json:"id"`
	// Utterance is the user message fed through the turn graph.
	Utterance string `json:"utterance"`
	// ExpectedIntent is the label the classifier should settle on.
	ExpectedIntent entities.Intent `json:"expected_intent"`
	// ExpectedLanguage is the locale the reply must be written in.
	ExpectedLanguage entities.Language `json:"expected_language"`
	// QueryMarkers are substrings the synthesized query must contain, e.g.
	// a column name or COUNT. Empty for non-database cases.
	QueryMarkers []string `json:"query_markers,omitempty"`
	Difficulty   string   `json:"difficulty"`
}

// CaseResult holds the evaluation outcome for a single case.
type CaseResult struct {
	CaseID          string
	Utterance       string
	GotIntent       entities.Intent
	IntentCorrect   bool
	LanguageMatched bool
	MarkersHit      int
	MarkersTotal    int
	PolicyViolation string
	Latency         time.Duration
}

// Summary holds aggregate metrics across all golden cases.
type Summary struct {
	TotalCases         int
	IntentAccuracy     float64
	LanguageCompliance float64
	MarkerHitRate      float64
	PolicyViolations   int
	AvgLatency         time.Duration
	ByIntent           map[entities.Intent]*IntentSummary
	Results            []CaseResult
}

// IntentSummary holds metrics grouped by expected intent.
type IntentSummary struct {
	Count   int
	Correct int
}
