package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

// TurnProcessor is the orchestration surface the runner drives. Matches
// ConversationOrchestrator.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, utterance entities.Utterance, window []entities.ContextMessage) entities.TurnState
}

// Runner evaluates the assistant across a set of golden cases. Each case
// runs as an isolated turn with no session context.
type Runner struct {
	processor TurnProcessor
}

// NewRunner creates the evaluation runner.
func NewRunner(processor TurnProcessor) *Runner {
	return &Runner{processor: processor}
}

// Run processes every case and aggregates the outcome.
func (r *Runner) Run(ctx context.Context, cases []GoldenCase) *Summary {
	summary := &Summary{
		TotalCases: len(cases),
		ByIntent:   make(map[entities.Intent]*IntentSummary),
	}

	for _, gc := range cases {
		start := time.Now()
		state := r.processor.ProcessTurn(ctx,
			entities.NewUtterance(gc.Utterance, gc.ExpectedLanguage), nil)
		latency := time.Since(start)

		result := CaseResult{
			CaseID:       gc.ID,
			Utterance:    gc.Utterance,
			GotIntent:    state.Intent,
			MarkersTotal: len(gc.QueryMarkers),
			Latency:      latency,
		}
		result.IntentCorrect = state.Intent == gc.ExpectedIntent

		if state.Reply != nil {
			reply := state.Reply.Message()
			result.LanguageMatched = entities.DetectLanguage(reply) == gc.ExpectedLanguage
			result.PolicyViolation = CheckReplyPolicy(gc.Utterance, reply, gc.ExpectedLanguage)
		}

		for _, marker := range gc.QueryMarkers {
			if strings.Contains(state.Query, marker) {
				result.MarkersHit++
			}
		}

		r.accumulate(summary, gc, result)
	}

	r.finalize(summary)
	return summary
}

func (r *Runner) accumulate(s *Summary, gc GoldenCase, res CaseResult) {
	s.Results = append(s.Results, res)
	if res.IntentCorrect {
		s.IntentAccuracy++
	}
	if res.LanguageMatched {
		s.LanguageCompliance++
	}
	if res.MarkersTotal > 0 {
		s.MarkerHitRate += float64(res.MarkersHit) / float64(res.MarkersTotal)
	} else {
		s.MarkerHitRate++
	}
	if res.PolicyViolation != "" {
		s.PolicyViolations++
	}
	s.AvgLatency += res.Latency

	if _, ok := s.ByIntent[gc.ExpectedIntent]; !ok {
		s.ByIntent[gc.ExpectedIntent] = &IntentSummary{}
	}
	is := s.ByIntent[gc.ExpectedIntent]
	is.Count++
	if res.IntentCorrect {
		is.Correct++
	}
}

func (r *Runner) finalize(s *Summary) {
	if s.TotalCases == 0 {
		return
	}
	n := float64(s.TotalCases)
	s.IntentAccuracy /= n
	s.LanguageCompliance /= n
	s.MarkerHitRate /= n
	s.AvgLatency /= time.Duration(s.TotalCases)
}
