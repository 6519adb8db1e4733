package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

type stubReportRepo struct {
	created []*entities.ComplaintReport
	err     error
}

func (s *stubReportRepo) Create(_ context.Context, report *entities.ComplaintReport) error {
	if s.err != nil {
		return s.err
	}
	if report.ID == "" {
		report.ID = "report-1"
	}
	s.created = append(s.created, report)
	return nil
}

// validGateway approves every answer.
func validGateway() *stubGateway {
	return &stubGateway{responses: []string{
		`{"is_valid": true}`, `{"is_valid": true}`, `{"is_valid": true}`, `{"is_valid": true}`,
		`{"is_valid": true}`, `{"is_valid": true}`, `{"is_valid": true}`, `{"is_valid": true}`,
	}}
}

func TestReportService_FullFlow(t *testing.T) {
	ctx := context.Background()
	repo := &stubReportRepo{}
	svc := NewReportService(repo, newMemoryCache(), validGateway(), 3600)

	start := svc.Start(ctx, "s1", entities.LanguageEnglish)
	assert.Equal(t, entities.StepAgencyName, start.Step)
	assert.Contains(t, start.Prompt, "name of the Hajj agency")

	step, err := svc.Advance(ctx, "s1", "Al Safa Travel", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepCity, step.Step)

	step, err = svc.Advance(ctx, "s1", "Makkah", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepDetails, step.Step)

	step, err = svc.Advance(ctx, "s1", "They took payment and never issued the visa documents.", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepContact, step.Step)

	step, err = svc.Advance(ctx, "s1", "pilgrim@example.com", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.True(t, step.Completed)
	assert.Equal(t, "report-1", step.ReportID)

	require.Len(t, repo.created, 1)
	report := repo.created[0]
	assert.Equal(t, "Al Safa Travel", report.AgencyName)
	assert.Equal(t, "Makkah", report.City)
	assert.Equal(t, "pilgrim@example.com", report.ContactInfo)

	assert.False(t, svc.InProgress(ctx, "s1"), "state is cleared after filing")
}

func TestReportService_SkipContact(t *testing.T) {
	ctx := context.Background()
	repo := &stubReportRepo{}
	svc := NewReportService(repo, newMemoryCache(), validGateway(), 3600)

	svc.Start(ctx, "s1", entities.LanguageEnglish)
	svc.Advance(ctx, "s1", "Noor Hajj Services", entities.LanguageEnglish)
	svc.Advance(ctx, "s1", "Jeddah", entities.LanguageEnglish)
	svc.Advance(ctx, "s1", "The accommodation promised was never provided to our group.", entities.LanguageEnglish)

	step, err := svc.Advance(ctx, "s1", "SKIP", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.True(t, step.Completed)

	require.Len(t, repo.created, 1)
	assert.Empty(t, repo.created[0].ContactInfo, "skip files anonymously")
}

func TestReportService_InvalidAnswerRepeatsStep(t *testing.T) {
	ctx := context.Background()
	gateway := &stubGateway{responses: []string{
		`{"is_valid": false, "feedback": "That does not look like an agency name."}`,
		`{"is_valid": true}`,
	}}
	svc := NewReportService(&stubReportRepo{}, newMemoryCache(), gateway, 3600)

	svc.Start(ctx, "s1", entities.LanguageEnglish)

	step, err := svc.Advance(ctx, "s1", "???", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepAgencyName, step.Step, "invalid answer repeats the step")
	assert.Contains(t, step.Prompt, "does not look like")

	step, err = svc.Advance(ctx, "s1", "Al Safa Travel", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepCity, step.Step)
}

func TestReportService_GatewayOutageUsesLocalValidation(t *testing.T) {
	ctx := context.Background()
	repo := &stubReportRepo{}
	svc := NewReportService(repo, newMemoryCache(), failingGateway(), 3600)

	svc.Start(ctx, "s1", entities.LanguageEnglish)

	step, err := svc.Advance(ctx, "s1", "x", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepAgencyName, step.Step, "single character fails the local floor")

	step, err = svc.Advance(ctx, "s1", "Al Safa Travel", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepCity, step.Step)
}

func TestReportService_EmptyAnswer(t *testing.T) {
	ctx := context.Background()
	svc := NewReportService(&stubReportRepo{}, newMemoryCache(), validGateway(), 3600)

	svc.Start(ctx, "s1", entities.LanguageEnglish)
	step, err := svc.Advance(ctx, "s1", "   ", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, entities.StepAgencyName, step.Step)
	assert.NotEmpty(t, step.Prompt)
}

func TestReportService_PersistFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	repo := &stubReportRepo{err: errors.New("insert failed")}
	svc := NewReportService(repo, newMemoryCache(), validGateway(), 3600)

	svc.Start(ctx, "s1", entities.LanguageEnglish)
	svc.Advance(ctx, "s1", "Al Safa Travel", entities.LanguageEnglish)
	svc.Advance(ctx, "s1", "Makkah", entities.LanguageEnglish)
	svc.Advance(ctx, "s1", "They cancelled the trip without any refund at all.", entities.LanguageEnglish)

	_, err := svc.Advance(ctx, "s1", "skip", entities.LanguageEnglish)
	require.Error(t, err)
	assert.True(t, svc.InProgress(ctx, "s1"), "state survives so the user can retry")
}

func TestReportService_ArabicPrompts(t *testing.T) {
	ctx := context.Background()
	svc := NewReportService(&stubReportRepo{}, newMemoryCache(), validGateway(), 3600)

	start := svc.Start(ctx, "s1", entities.LanguageArabic)
	assert.Equal(t, entities.LanguageArabic, entities.DetectLanguage(start.Prompt))
}
