package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/api/handlers"
	"github.com/hajjtrust/agency-assistant/internal/application/services"
	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

type stubIntake struct {
	started  []string
	advanced []string
	result   *services.ReportStepResult
	err      error
}

func (s *stubIntake) Start(_ context.Context, sessionID string, _ entities.Language) *services.ReportStepResult {
	s.started = append(s.started, sessionID)
	return &services.ReportStepResult{Prompt: "What is the name of the agency?", Step: entities.StepAgencyName}
}

func (s *stubIntake) Advance(_ context.Context, sessionID, answer string, _ entities.Language) (*services.ReportStepResult, error) {
	s.advanced = append(s.advanced, answer)
	return s.result, s.err
}

func (s *stubIntake) InProgress(_ context.Context, _ string) bool {
	return len(s.started) > 0
}

func TestReportHandler_HandleStart(t *testing.T) {
	intake := &stubIntake{}
	handler := handlers.NewReportHandler(intake)

	req := httptest.NewRequest("POST", "/api/report/start", strings.NewReader(`{"language":"en"}`))
	w := httptest.NewRecorder()

	handler.HandleStart(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.NotEmpty(t, response["session_id"])
	assert.Contains(t, response["prompt"], "name of the agency")
	require.Len(t, intake.started, 1)
}

func TestReportHandler_HandleAnswer_Advances(t *testing.T) {
	intake := &stubIntake{
		result: &services.ReportStepResult{Prompt: "Which city did this happen in?", Step: entities.StepCity},
	}
	handler := handlers.NewReportHandler(intake)

	body := `{"session_id":"s1","answer":"Al Safa Travel"}`
	req := httptest.NewRequest("POST", "/api/report", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandleAnswer(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "s1", response["session_id"])
	assert.Contains(t, response["prompt"], "city")
	assert.Equal(t, false, response["completed"])
	assert.Equal(t, []string{"Al Safa Travel"}, intake.advanced)
}

func TestReportHandler_HandleAnswer_Completed(t *testing.T) {
	intake := &stubIntake{
		result: &services.ReportStepResult{
			Prompt:    "Your report has been recorded. Reference: report-1",
			Step:      entities.StepDone,
			Completed: true,
			ReportID:  "report-1",
		},
	}
	handler := handlers.NewReportHandler(intake)

	body := `{"session_id":"s1","answer":"skip"}`
	req := httptest.NewRequest("POST", "/api/report", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandleAnswer(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, true, response["completed"])
	assert.Equal(t, "report-1", response["report_id"])
}

func TestReportHandler_HandleAnswer_MissingSession(t *testing.T) {
	handler := handlers.NewReportHandler(&stubIntake{})

	req := httptest.NewRequest("POST", "/api/report", strings.NewReader(`{"answer":"hello"}`))
	w := httptest.NewRecorder()

	handler.HandleAnswer(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_HandleAnswer_PersistFailure(t *testing.T) {
	intake := &stubIntake{err: assert.AnError}
	handler := handlers.NewReportHandler(intake)

	body := `{"session_id":"s1","answer":"0501234567"}`
	req := httptest.NewRequest("POST", "/api/report", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandleAnswer(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
