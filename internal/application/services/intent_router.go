package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/providers"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/openai"
)

// contextWindowForIntent bounds the recent turns shown to the classifier.
const contextWindowForIntent = 4

var greetingWords = []string{
	"hello", "hi", "hey", "salam", "salaam", "assalam", "thanks", "thank you",
	"good morning", "good evening", "goodbye", "bye",
	"السلام", "سلام", "مرحبا", "أهلا", "اهلا", "شكرا", "صباح الخير", "مساء الخير", "وداعا",
}

var domainWords = []string{
	"company", "companies", "agency", "agencies", "authorized", "authorised",
	"شركة", "شركات", "وكالة", "وكالات", "معتمد", "معتمدة",
}

// IntentRouter assigns exactly one intent label per utterance. The model
// verdict is preferred; a keyword heuristic covers gateway failures so a
// classification always exists.
type IntentRouter struct {
	gateway providers.CompletionGateway
}

// NewIntentRouter creates the router.
func NewIntentRouter(gateway providers.CompletionGateway) *IntentRouter {
	return &IntentRouter{gateway: gateway}
}

// Classify labels the utterance, consulting a bounded window of recent turns
// so follow-up pronouns can resolve. Never returns an error: gateway failures
// degrade to the keyword fallback.
func (r *IntentRouter) Classify(ctx context.Context, utterance entities.Utterance, window []entities.ContextMessage) entities.IntentResult {
	if len(window) > contextWindowForIntent {
		window = window[len(window)-contextWindowForIntent:]
	}

	result, err := r.classifyWithModel(ctx, utterance, window)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("intent classification degraded to keyword fallback")
		return r.classifyWithKeywords(utterance)
	}
	return result
}

// IsVague flags short utterances that mention agencies without saying what
// about them. Informational for downstream branches, not a fifth label.
func (r *IntentRouter) IsVague(utterance entities.Utterance) bool {
	if utterance.TokenCount() >= 3 {
		return false
	}
	return hasKeyword(strings.ToLower(utterance.Text), domainWords)
}

// hasKeyword matches single words against whole tokens and multi-word
// phrases as substrings, so "hi" does not fire inside "think".
func hasKeyword(lowered string, words []string) bool {
	tokens := map[string]bool{}
	for _, f := range strings.Fields(lowered) {
		tokens[strings.Trim(f, ".,!?؟،\"'()")] = true
	}
	for _, w := range words {
		if strings.Contains(w, " ") {
			if strings.Contains(lowered, w) {
				return true
			}
		} else if tokens[w] {
			return true
		}
	}
	return false
}

func (r *IntentRouter) classifyWithModel(ctx context.Context, utterance entities.Utterance, window []entities.ContextMessage) (entities.IntentResult, error) {
	userContent := utterance.Text
	if block := openai.BuildContextBlock(window); block != "" {
		userContent = block + "\nCurrent message: " + utterance.Text
	}

	raw, err := r.gateway.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: openai.IntentSystemPrompt},
			{Role: providers.RoleUser, Content: userContent},
		},
		Shape:       providers.ShapeJSON,
		Temperature: 0,
	})
	if err != nil {
		return entities.IntentResult{}, err
	}

	var result entities.IntentResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return entities.IntentResult{}, err
	}
	if !result.Intent.IsValid() {
		return r.classifyWithKeywords(utterance), nil
	}
	return result, nil
}

// classifyWithKeywords is the deterministic fallback: greeting words win,
// then domain words route to DATABASE when the utterance is long enough to
// carry a real question, otherwise NEEDS_INFO; everything else is GENERAL.
func (r *IntentRouter) classifyWithKeywords(utterance entities.Utterance) entities.IntentResult {
	lowered := strings.ToLower(utterance.Text)

	if hasKeyword(lowered, greetingWords) {
		return entities.IntentResult{
			Intent:     entities.IntentGreeting,
			Confidence: 0.9,
			Reasoning:  "matched a greeting keyword",
		}
	}

	if hasKeyword(lowered, domainWords) {
		if utterance.TokenCount() >= 4 {
			return entities.IntentResult{
				Intent:     entities.IntentDatabase,
				Confidence: 0.7,
				Reasoning:  "matched an agency keyword in a full question",
			}
		}
		return entities.IntentResult{
			Intent:     entities.IntentNeedsInfo,
			Confidence: 0.6,
			Reasoning:  "agency keyword without enough detail to query",
		}
	}

	return entities.IntentResult{
		Intent:     entities.IntentGeneral,
		Confidence: 0.5,
		Reasoning:  "no greeting or agency keyword matched",
	}
}
