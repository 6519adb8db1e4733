package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/application/services"
	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

// ReportIntake is the complaint-intake surface the handler drives.
type ReportIntake interface {
	Start(ctx context.Context, sessionID string, language entities.Language) *services.ReportStepResult
	Advance(ctx context.Context, sessionID, answer string, language entities.Language) (*services.ReportStepResult, error)
	InProgress(ctx context.Context, sessionID string) bool
}

// ReportHandler serves the complaint-intake endpoints.
type ReportHandler struct {
	intake ReportIntake
}

// NewReportHandler creates a new report handler.
func NewReportHandler(intake ReportIntake) *ReportHandler {
	return &ReportHandler{intake: intake}
}

type reportRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	Language  string `json:"language"`
}

type reportResponse struct {
	SessionID string              `json:"session_id"`
	Prompt    string              `json:"prompt"`
	Step      entities.ReportStep `json:"step"`
	Completed bool                `json:"completed"`
	ReportID  string              `json:"report_id,omitempty"`
}

// HandleStart handles POST /api/report/start, beginning a fresh intake.
func (h *ReportHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var payload reportRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result := h.intake.Start(r.Context(), sessionID, resolveLanguage(payload.Language))
	respondWithJSON(w, http.StatusOK, reportResponse{
		SessionID: sessionID,
		Prompt:    result.Prompt,
		Step:      result.Step,
	})
}

// HandleAnswer handles POST /api/report, feeding one answer into the flow.
func (h *ReportHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var payload reportRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.intake.Advance(r.Context(), sessionID, payload.Answer, resolveLanguage(payload.Language))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("session_id", sessionID).Msg("failed to record complaint report")
		respondWithError(w, http.StatusInternalServerError, "failed to record report")
		return
	}

	respondWithJSON(w, http.StatusOK, reportResponse{
		SessionID: sessionID,
		Prompt:    result.Prompt,
		Step:      result.Step,
		Completed: result.Completed,
		ReportID:  result.ReportID,
	})
}

func resolveLanguage(tag string) entities.Language {
	language := entities.Language(tag)
	if !language.IsValid() {
		return entities.LanguageEnglish
	}
	return language
}
