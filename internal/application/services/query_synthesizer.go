package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/providers"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/openai"
)

// QuerySynthesizer turns a catalog question into one candidate SELECT. The
// model path is tried first, the keyword planner second; a nil result means
// no safe query exists and an empty query string never travels downstream.
//
// The model's safety_checked flag is a hint used only to discard its own
// output early. The real safety decision is the gate in front of execution.
type QuerySynthesizer struct {
	gateway providers.CompletionGateway
	planner *HeuristicQueryPlanner
}

// NewQuerySynthesizer creates the synthesizer.
func NewQuerySynthesizer(gateway providers.CompletionGateway, planner *HeuristicQueryPlanner) *QuerySynthesizer {
	return &QuerySynthesizer{gateway: gateway, planner: planner}
}

type synthesisEnvelope struct {
	Query          string   `json:"query"`
	QueryType      string   `json:"query_type"`
	FiltersApplied []string `json:"filters_applied"`
	Explanation    string   `json:"explanation"`
	SafetyChecked  bool     `json:"safety_checked"`
}

// Synthesize produces a candidate query for the utterance, or nil when
// neither path can. Entity hints and the recent window only enrich the
// generation prompt.
func (s *QuerySynthesizer) Synthesize(ctx context.Context, utterance entities.Utterance, hints entities.EntityMatchSet, window []entities.ContextMessage) *entities.SynthesisResult {
	if result := s.generate(ctx, utterance, hints, window); result != nil {
		return result
	}

	if result := s.planner.Plan(utterance.Text); result != nil {
		return result
	}

	log.Ctx(ctx).Debug().Str("utterance", utterance.Text).Msg("no query could be synthesized")
	return nil
}

func (s *QuerySynthesizer) generate(ctx context.Context, utterance entities.Utterance, hints entities.EntityMatchSet, window []entities.ContextMessage) *entities.SynthesisResult {
	raw, err := s.gateway.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: openai.SQLSystemPrompt},
			{Role: providers.RoleUser, Content: s.buildUserMessage(utterance, hints, window)},
		},
		Shape:       providers.ShapeJSON,
		Temperature: 0,
	})
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("query generation degraded to keyword planner")
		return nil
	}

	var envelope synthesisEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("query generation returned malformed output")
		return nil
	}

	// A query without the model's own safety attestation is discarded, not
	// repaired. The execution gate re-validates accepted ones regardless.
	if strings.TrimSpace(envelope.Query) == "" || !envelope.SafetyChecked {
		return nil
	}

	return &entities.SynthesisResult{
		Query:       strings.TrimSpace(envelope.Query),
		Kind:        parseQueryKind(envelope.QueryType),
		Filters:     envelope.FiltersApplied,
		Explanation: envelope.Explanation,
	}
}

func (s *QuerySynthesizer) buildUserMessage(utterance entities.Utterance, hints entities.EntityMatchSet, window []entities.ContextMessage) string {
	var b strings.Builder
	if block := openai.BuildContextBlock(window); block != "" {
		b.WriteString(block)
		b.WriteString("\n")
	}
	if !hints.IsEmpty() {
		b.WriteString("Known catalog values that resemble words in the question:\n")
		for _, field := range entities.MatchFields() {
			if candidates := hints[field]; len(candidates) > 0 {
				fmt.Fprintf(&b, "  %s: %s\n", field.Column(), strings.Join(candidates, ", "))
			}
		}
	}
	b.WriteString("Question (" + string(utterance.Language) + "): " + utterance.Text)
	return b.String()
}

func parseQueryKind(raw string) entities.QueryKind {
	switch entities.QueryKind(strings.ToLower(strings.TrimSpace(raw))) {
	case entities.QueryKindSimple:
		return entities.QueryKindSimple
	case entities.QueryKindAggregation:
		return entities.QueryKindAggregation
	case entities.QueryKindComplex:
		return entities.QueryKindComplex
	}
	return entities.QueryKindSimple
}
