package entities

import (
	"strings"
	"unicode"
)

// Language is a supported reply locale.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// IsValid checks the language tag against the supported set.
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// DetectLanguage resolves a language tag from the script of the text.
// Text with more than 30% Arabic letters is treated as Arabic.
func DetectLanguage(text string) Language {
	arabic, latin := 0, 0
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		case r <= unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}
	total := arabic + latin
	if total > 0 && float64(arabic)/float64(total) > 0.3 {
		return LanguageArabic
	}
	return LanguageEnglish
}

// Utterance is a single user-submitted message plus its resolved language.
// Created once per turn; immutable.
type Utterance struct {
	Text     string   `json:"text"`
	Language Language `json:"language"`
}

// NewUtterance builds an utterance, detecting the language when the caller
// did not supply a valid tag.
func NewUtterance(text string, language Language) Utterance {
	if !language.IsValid() {
		language = DetectLanguage(text)
	}
	return Utterance{Text: strings.TrimSpace(text), Language: language}
}

// TokenCount returns the number of whitespace-delimited tokens.
func (u Utterance) TokenCount() int {
	return len(strings.Fields(u.Text))
}

// Intent is the coarse category of a user utterance. It selects exactly one
// processing branch per turn.
type Intent string

const (
	IntentGreeting  Intent = "GREETING"
	IntentDatabase  Intent = "DATABASE"
	IntentGeneral   Intent = "GENERAL"
	IntentNeedsInfo Intent = "NEEDS_INFO"
)

// IsValid checks the intent against the four defined labels.
func (i Intent) IsValid() bool {
	switch i {
	case IntentGreeting, IntentDatabase, IntentGeneral, IntentNeedsInfo:
		return true
	}
	return false
}

// IntentResult is the classifier's verdict for one utterance.
type IntentResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// QueryKind describes how a query was produced.
type QueryKind string

const (
	QueryKindSimple      QueryKind = "simple"
	QueryKindAggregation QueryKind = "aggregation"
	QueryKindComplex     QueryKind = "complex"
	QueryKindHeuristic   QueryKind = "heuristic"
	QueryKindNone        QueryKind = "none"
)

// SynthesisResult is a validated candidate query plus its provenance.
// A nil result from the synthesizer means "no safe query possible";
// an empty Query string never travels downstream.
type SynthesisResult struct {
	Query       string    `json:"query"`
	Params      []any     `json:"-"`
	Kind        QueryKind `json:"kind"`
	Filters     []string  `json:"filters"`
	Explanation string    `json:"explanation"`
}

// Row is one result row from a validated SELECT. Ordering of rows is
// preserved from the store; column order is carried separately.
type Row = map[string]any

// Reply is the terminal payload of a turn. Exactly one concrete variant is
// produced per completed turn; the variants are sealed in this package.
type Reply interface {
	Kind() Intent
	Message() string
}

// GreetingReply answers a greeting-intent turn.
type GreetingReply struct {
	Text string `json:"text"`
}

func (r GreetingReply) Kind() Intent    { return IntentGreeting }
func (r GreetingReply) Message() string { return r.Text }

// GeneralReply answers a general Hajj question.
type GeneralReply struct {
	Text string `json:"text"`
}

func (r GeneralReply) Kind() Intent    { return IntentGeneral }
func (r GeneralReply) Message() string { return r.Text }

// NeedsInfoReply asks the user to narrow a vague request.
type NeedsInfoReply struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions,omitempty"`
	MissingInfo []string `json:"missing_info,omitempty"`
	SampleQuery string   `json:"sample_query,omitempty"`
}

func (r NeedsInfoReply) Kind() Intent    { return IntentNeedsInfo }
func (r NeedsInfoReply) Message() string { return r.Text }

// DatabaseReply summarizes the outcome of a catalog query.
type DatabaseReply struct {
	Summary         string   `json:"summary"`
	KeyInsights     []string `json:"key_insights,omitempty"`
	AuthorizedCount int      `json:"authorized_count"`
	TopLocations    []string `json:"top_locations,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

func (r DatabaseReply) Kind() Intent    { return IntentDatabase }
func (r DatabaseReply) Message() string { return r.Summary }

// TurnState is the working record threaded through one turn of the
// conversation graph. It is created at turn start, populated by node
// updates, handed to the presentation layer at END, and discarded.
type TurnState struct {
	Utterance Utterance

	Intent           Intent
	IntentConfidence float64
	IntentReasoning  string
	IsVague          bool

	Query            string
	QueryParams      []any
	QueryKind        QueryKind
	AppliedFilters   []string
	QueryExplanation string

	// QueryError and result fields are mutually exclusive.
	QueryError string
	Rows       []Row
	Columns    []string
	RowCount   int

	EntityHints EntityMatchSet

	Reply Reply
}

// ContextMessage is one entry of the bounded trailing conversation window.
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	// ContextRoleUser marks a user turn in the session window.
	ContextRoleUser = "user"
	// ContextRoleAssistant marks an assistant turn in the session window.
	ContextRoleAssistant = "assistant"
)
