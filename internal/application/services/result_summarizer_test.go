package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

func sampleRows(n int) []entities.Row {
	rows := make([]entities.Row, n)
	for i := range rows {
		rows[i] = entities.Row{"hajj_company_en": "Agency", "city": "Makkah"}
	}
	return rows
}

func TestResultSummarizer_Summarize(t *testing.T) {
	t.Run("uses the model reply when well formed", func(t *testing.T) {
		gateway := &stubGateway{responses: []string{
			`{"summary": "There are 2 authorized agencies in Makkah. Would you like their details?",
			  "key_insights": ["both are authorized"], "authorized_count": 2, "top_locations": ["Makkah"]}`,
		}}
		summarizer := NewResultSummarizer(gateway)

		reply := summarizer.Summarize(context.Background(),
			entities.NewUtterance("authorized agencies in Makkah please", entities.LanguageEnglish),
			sampleRows(2), 2)

		assert.Contains(t, reply.Summary, "2 authorized agencies")
		assert.Equal(t, 2, reply.AuthorizedCount)
		assert.Equal(t, []string{"Makkah"}, reply.TopLocations)
	})

	t.Run("caps the sample offered to the model at fifty rows", func(t *testing.T) {
		gateway := &stubGateway{responses: []string{`{"summary": "Many results."}`}}
		summarizer := NewResultSummarizer(gateway)

		summarizer.Summarize(context.Background(),
			entities.NewUtterance("list everything", entities.LanguageEnglish),
			sampleRows(120), 120)

		require.Len(t, gateway.requests, 1)
		user := gateway.requests[0].Messages[1].Content
		assert.Contains(t, user, "Total matching rows: 120")
		assert.Contains(t, user, "Sample rows (50 shown)")
	})

	t.Run("gateway failure degrades to the count template", func(t *testing.T) {
		summarizer := NewResultSummarizer(failingGateway())

		reply := summarizer.Summarize(context.Background(),
			entities.NewUtterance("agencies in Jeddah today", entities.LanguageEnglish),
			sampleRows(7), 7)

		assert.Equal(t, "Found 7 matching records.", reply.Summary)
	})

	t.Run("arabic count template for arabic utterances", func(t *testing.T) {
		summarizer := NewResultSummarizer(failingGateway())

		reply := summarizer.Summarize(context.Background(),
			entities.NewUtterance("أظهر لي الشركات المعتمدة", ""),
			sampleRows(3), 3)

		assert.Contains(t, reply.Summary, "3")
		assert.Equal(t, entities.LanguageArabic, entities.DetectLanguage(reply.Summary))
	})

	t.Run("malformed model output degrades to the count template", func(t *testing.T) {
		gateway := &stubGateway{responses: []string{`{"summary": ""}`}}
		summarizer := NewResultSummarizer(gateway)

		reply := summarizer.Summarize(context.Background(),
			entities.NewUtterance("agencies in Jeddah today", entities.LanguageEnglish),
			sampleRows(4), 4)

		assert.Equal(t, "Found 4 matching records.", reply.Summary)
	})
}

func TestResultSummarizer_ZeroResult(t *testing.T) {
	summarizer := NewResultSummarizer(failingGateway())

	t.Run("never calls the gateway", func(t *testing.T) {
		gateway := failingGateway()
		s := NewResultSummarizer(gateway)
		s.ZeroResult(entities.LanguageEnglish, nil)
		assert.Zero(t, gateway.calls)
	})

	t.Run("english template without suggestions", func(t *testing.T) {
		reply := summarizer.ZeroResult(entities.LanguageEnglish, nil)
		assert.Contains(t, reply.Summary, "could not find")
	})

	t.Run("includes fuzzy suggestions when available", func(t *testing.T) {
		hints := entities.EntityMatchSet{entities.FieldCity: {"Makkah"}}
		reply := summarizer.ZeroResult(entities.LanguageEnglish, hints)
		assert.Contains(t, reply.Summary, "Did you mean")
		assert.Contains(t, reply.Summary, "Makkah")
		assert.Equal(t, []string{"Makkah"}, reply.Suggestions)
	})

	t.Run("arabic template", func(t *testing.T) {
		reply := summarizer.ZeroResult(entities.LanguageArabic, nil)
		assert.Equal(t, entities.LanguageArabic, entities.DetectLanguage(reply.Summary))
	})

	t.Run("deduplicates suggestions across fields", func(t *testing.T) {
		hints := entities.EntityMatchSet{
			entities.FieldCity:    {"Makkah", "Makkah"},
			entities.FieldCountry: {"Saudi Arabia"},
		}
		reply := summarizer.ZeroResult(entities.LanguageEnglish, hints)
		assert.Equal(t, []string{"Makkah", "Saudi Arabia"}, reply.Suggestions)
	})
}

func TestResultSummarizer_ErrorTemplates(t *testing.T) {
	summarizer := NewResultSummarizer(failingGateway())

	t.Run("no-query reply suggests naming an entity", func(t *testing.T) {
		reply := summarizer.NoQuery(entities.LanguageEnglish)
		assert.Contains(t, reply.Summary, "naming the agency")
	})

	t.Run("execution error stays generic", func(t *testing.T) {
		reply := summarizer.ExecutionError(entities.LanguageEnglish)
		assert.NotContains(t, reply.Summary, "SELECT")
		assert.Contains(t, reply.Summary, "went wrong")
	})

	t.Run("both are localized for arabic", func(t *testing.T) {
		assert.Equal(t, entities.LanguageArabic, entities.DetectLanguage(summarizer.NoQuery(entities.LanguageArabic).Summary))
		assert.Equal(t, entities.LanguageArabic, entities.DetectLanguage(summarizer.ExecutionError(entities.LanguageArabic).Summary))
	})
}
