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

// maxSampleRows bounds what is shown to the model; the full row set still
// reaches the caller untouched.
const maxSampleRows = 50

// summaryTemperature trades a little determinism for natural phrasing.
const summaryTemperature = 0.4

// ResultSummarizer turns query outcomes into localized replies. All reply
// language and formatting policy is centralized here; other components return
// data, not prose.
type ResultSummarizer struct {
	gateway providers.CompletionGateway
}

// NewResultSummarizer creates the summarizer.
func NewResultSummarizer(gateway providers.CompletionGateway) *ResultSummarizer {
	return &ResultSummarizer{gateway: gateway}
}

type summaryEnvelope struct {
	Summary         string   `json:"summary"`
	KeyInsights     []string `json:"key_insights"`
	AuthorizedCount int      `json:"authorized_count"`
	TopLocations    []string `json:"top_locations"`
	Suggestions     []string `json:"suggestions"`
}

// Summarize renders a reply for a non-empty result set. At most the first 50
// rows are offered to the model; gateway failure degrades to a count-only
// template in the right language.
func (s *ResultSummarizer) Summarize(ctx context.Context, utterance entities.Utterance, rows []entities.Row, rowCount int) entities.DatabaseReply {
	sample := rows
	if len(sample) > maxSampleRows {
		sample = sample[:maxSampleRows]
	}

	raw, err := s.gateway.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: openai.SummarySystemPrompt(utterance.Language)},
			{Role: providers.RoleUser, Content: s.buildUserMessage(utterance, sample, rowCount)},
		},
		Shape:       providers.ShapeJSON,
		Temperature: summaryTemperature,
	})
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("summary generation degraded to count template")
		return s.countTemplate(utterance.Language, rowCount)
	}

	var envelope summaryEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || strings.TrimSpace(envelope.Summary) == "" {
		log.Ctx(ctx).Debug().Err(err).Msg("summary generation returned malformed output")
		return s.countTemplate(utterance.Language, rowCount)
	}

	return entities.DatabaseReply{
		Summary:         envelope.Summary,
		KeyInsights:     envelope.KeyInsights,
		AuthorizedCount: envelope.AuthorizedCount,
		TopLocations:    envelope.TopLocations,
		Suggestions:     envelope.Suggestions,
	}
}

// ZeroResult renders the templated no-rows reply without any model call.
// Fuzzy candidates, when present, become "did you mean" suggestions.
func (s *ResultSummarizer) ZeroResult(language entities.Language, hints entities.EntityMatchSet) entities.DatabaseReply {
	suggestions := collectSuggestions(hints)

	if language == entities.LanguageArabic {
		summary := "لم أجد أي شركات مطابقة لبحثك. حاول إعادة صياغة السؤال أو التحقق من الإملاء."
		if len(suggestions) > 0 {
			summary = "لم أجد نتائج مطابقة. هل تقصد: " + strings.Join(suggestions, "، ") + "؟"
		}
		return entities.DatabaseReply{Summary: summary, Suggestions: suggestions}
	}

	summary := "I could not find any agencies matching your search. Try rephrasing the question or checking the spelling."
	if len(suggestions) > 0 {
		summary = "I could not find matching results. Did you mean: " + strings.Join(suggestions, ", ") + "?"
	}
	return entities.DatabaseReply{Summary: summary, Suggestions: suggestions}
}

// NoQuery renders the reply for a turn where no safe query could be built.
func (s *ResultSummarizer) NoQuery(language entities.Language) entities.DatabaseReply {
	if language == entities.LanguageArabic {
		return entities.DatabaseReply{
			Summary: "لم أتمكن من فهم طلبك بما يكفي للبحث في السجل. حاول ذكر اسم الشركة أو المدينة بوضوح.",
		}
	}
	return entities.DatabaseReply{
		Summary: "I could not turn that into a catalog search. Try naming the agency or city you are interested in.",
	}
}

// ExecutionError renders a calm generic failure message. The failing query
// and the underlying error stay in logs, never in the reply.
func (s *ResultSummarizer) ExecutionError(language entities.Language) entities.DatabaseReply {
	if language == entities.LanguageArabic {
		return entities.DatabaseReply{
			Summary: "حدث خطأ أثناء البحث في سجل الشركات. يرجى المحاولة مرة أخرى.",
		}
	}
	return entities.DatabaseReply{
		Summary: "Something went wrong searching the agency register. Please try again.",
	}
}

func (s *ResultSummarizer) countTemplate(language entities.Language, rowCount int) entities.DatabaseReply {
	if language == entities.LanguageArabic {
		return entities.DatabaseReply{
			Summary: fmt.Sprintf("تم العثور على %d سجلاً مطابقاً.", rowCount),
		}
	}
	return entities.DatabaseReply{
		Summary: fmt.Sprintf("Found %d matching records.", rowCount),
	}
}

func (s *ResultSummarizer) buildUserMessage(utterance entities.Utterance, sample []entities.Row, rowCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question (%s): %s\n", utterance.Language, utterance.Text)
	fmt.Fprintf(&b, "Total matching rows: %d\n", rowCount)
	fmt.Fprintf(&b, "Sample rows (%d shown):\n", len(sample))
	encoded, err := json.Marshal(sample)
	if err != nil {
		b.WriteString("[]")
	} else {
		b.Write(encoded)
	}
	return b.String()
}

func collectSuggestions(hints entities.EntityMatchSet) []string {
	var suggestions []string
	seen := map[string]bool{}
	for _, field := range entities.MatchFields() {
		for _, candidate := range hints[field] {
			if !seen[candidate] {
				seen[candidate] = true
				suggestions = append(suggestions, candidate)
			}
		}
	}
	return suggestions
}
