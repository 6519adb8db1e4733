package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hajjtrust/agency-assistant/internal/application/services"
	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/providers"
)

// maxMessageLength rejects oversize chat payloads before any processing.
const maxMessageLength = 2000

// lastResultTTLSeconds keeps the latest result set around long enough for an
// export click.
const lastResultTTLSeconds = 900

// ChatOrchestrator is the turn-processing surface the handler drives.
type ChatOrchestrator interface {
	ProcessTurn(ctx context.Context, utterance entities.Utterance, window []entities.ContextMessage) entities.TurnState
}

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	orchestrator ChatOrchestrator
	sessions     *services.SessionService
	cache        providers.CacheProvider
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orchestrator ChatOrchestrator, sessions *services.SessionService, cache providers.CacheProvider) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		sessions:     sessions,
		cache:        cache,
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Language  string `json:"language"`
}

type chatResponse struct {
	SessionID  string          `json:"session_id"`
	Intent     entities.Intent `json:"intent"`
	Language   string          `json:"language"`
	ReplyType  entities.Intent `json:"reply_type"`
	Reply      entities.Reply  `json:"reply"`
	ResultRows []entities.Row  `json:"result_rows,omitempty"`
	Columns    []string        `json:"columns,omitempty"`
	RowCount   int             `json:"row_count"`
	Diagnostic *chatDiagnostic `json:"diagnostic,omitempty"`
}

// chatDiagnostic carries the executed query and any store error for the
// user's own troubleshooting; the reply text never includes them.
type chatDiagnostic struct {
	Query          string   `json:"query,omitempty"`
	QueryError     string   `json:"query_error,omitempty"`
	AppliedFilters []string `json:"applied_filters,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
}

type storedResult struct {
	Columns []string       `json:"columns"`
	Rows    []entities.Row `json:"rows"`
}

// HandleChat handles POST /api/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.Message = strings.TrimSpace(payload.Message)
	if payload.Message == "" {
		respondWithError(w, http.StatusBadRequest, "message is required")
		return
	}
	if utf8.RuneCountInString(payload.Message) > maxMessageLength {
		respondWithError(w, http.StatusBadRequest, "message is too long")
		return
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	utterance := entities.NewUtterance(payload.Message, entities.Language(payload.Language))
	window := h.sessions.Window(r.Context(), sessionID)

	state := h.orchestrator.ProcessTurn(r.Context(), utterance, window)
	if state.Reply == nil {
		respondWithError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	h.sessions.AppendTurn(r.Context(), sessionID, payload.Message, state.Reply.Message())
	if state.RowCount > 0 {
		h.storeLastResult(r.Context(), sessionID, state)
	}

	response := chatResponse{
		SessionID: sessionID,
		Intent:    state.Intent,
		Language:  string(utterance.Language),
		ReplyType: state.Reply.Kind(),
		Reply:     state.Reply,
		RowCount:  state.RowCount,
	}
	if state.Intent == entities.IntentDatabase {
		response.ResultRows = state.Rows
		response.Columns = state.Columns
		response.Diagnostic = &chatDiagnostic{
			Query:          state.Query,
			QueryError:     state.QueryError,
			AppliedFilters: state.AppliedFilters,
			Explanation:    state.QueryExplanation,
		}
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HandleExport handles GET /api/chat/export, streaming the session's latest
// result set as CSV.
func (h *ChatHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	raw, err := h.cache.Get(r.Context(), lastResultKey(sessionID))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "no results available to export")
		return
	}

	var stored storedResult
	if err := json.Unmarshal(raw, &stored); err != nil || len(stored.Columns) == 0 {
		respondWithError(w, http.StatusNotFound, "no results available to export")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="agencies.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write(stored.Columns)
	for _, row := range stored.Rows {
		record := make([]string, len(stored.Columns))
		for i, column := range stored.Columns {
			if value, ok := row[column]; ok && value != nil {
				record[i] = fmt.Sprintf("%v", value)
			}
		}
		_ = writer.Write(record)
	}
	writer.Flush()
}

// HandleReset handles POST /api/chat/reset, dropping the session window.
func (h *ChatHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.SessionID) == "" {
		respondWithError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	h.sessions.Clear(r.Context(), payload.SessionID)
	_ = h.cache.Delete(r.Context(), lastResultKey(payload.SessionID))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *ChatHandler) storeLastResult(ctx context.Context, sessionID string, state entities.TurnState) {
	raw, err := json.Marshal(storedResult{Columns: state.Columns, Rows: state.Rows})
	if err != nil {
		return
	}
	_ = h.cache.Set(ctx, lastResultKey(sessionID), raw, lastResultTTLSeconds)
}

func lastResultKey(sessionID string) string {
	return fmt.Sprintf("session:%s:result", sessionID)
}
