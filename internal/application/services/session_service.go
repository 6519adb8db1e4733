package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/providers"
)

// SessionService owns the per-conversation trailing context window. The
// window is bounded both in message count and per-message length on every
// append, so context size stays fixed regardless of session age.
//
// Window state is private per session; concurrent sessions never share it.
type SessionService struct {
	cache       providers.CacheProvider
	maxMessages int
	maxRunes    int
	ttlSeconds  int
}

// NewSessionService creates the session window manager. maxTurns counts
// user/assistant pairs; the stored window holds twice that many messages.
func NewSessionService(cache providers.CacheProvider, maxTurns, maxRunes, ttlSeconds int) *SessionService {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if maxRunes <= 0 {
		maxRunes = 500
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &SessionService{
		cache:       cache,
		maxMessages: maxTurns * 2,
		maxRunes:    maxRunes,
		ttlSeconds:  ttlSeconds,
	}
}

func contextKey(sessionID string) string {
	return fmt.Sprintf("session:%s:context", sessionID)
}

// Window returns the stored context window, oldest first. A cache failure
// degrades to an empty window rather than failing the turn.
func (s *SessionService) Window(ctx context.Context, sessionID string) []entities.ContextMessage {
	raw, err := s.cache.Get(ctx, contextKey(sessionID))
	if err != nil {
		return nil
	}

	var window []entities.ContextMessage
	if err := json.Unmarshal(raw, &window); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("discarding corrupt session window")
		return nil
	}
	return window
}

// AppendTurn records one user/assistant exchange and re-applies the trimming
// policy before persisting.
func (s *SessionService) AppendTurn(ctx context.Context, sessionID, userText, assistantText string) {
	window := s.Window(ctx, sessionID)
	window = append(window,
		entities.ContextMessage{Role: entities.ContextRoleUser, Content: truncateRunes(userText, s.maxRunes)},
		entities.ContextMessage{Role: entities.ContextRoleAssistant, Content: truncateRunes(assistantText, s.maxRunes)},
	)
	if len(window) > s.maxMessages {
		window = window[len(window)-s.maxMessages:]
	}

	raw, err := json.Marshal(window)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, contextKey(sessionID), raw, s.ttlSeconds); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist session window")
	}
}

// Clear drops the session window, used when a conversation is reset.
func (s *SessionService) Clear(ctx context.Context, sessionID string) {
	if err := s.cache.Delete(ctx, contextKey(sessionID)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to clear session window")
	}
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
