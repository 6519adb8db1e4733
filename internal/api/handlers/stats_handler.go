package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/providers"
	"github.com/hajjtrust/agency-assistant/internal/domain/repositories"
)

const (
	statsCacheKey        = "stats:catalog"
	statsCacheTTLSeconds = 300
)

// StatsHandler serves catalog aggregates.
type StatsHandler struct {
	repo  repositories.AgencyRepository
	cache providers.CacheProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo repositories.AgencyRepository, cache providers.CacheProvider) *StatsHandler {
	return &StatsHandler{repo: repo, cache: cache}
}

// HandleStats handles GET /api/stats
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if stats := h.cachedStats(r.Context()); stats != nil {
		respondWithJSON(w, http.StatusOK, stats)
		return
	}

	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to load catalog stats")
		respondWithError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	if raw, err := json.Marshal(stats); err == nil {
		_ = h.cache.Set(r.Context(), statsCacheKey, raw, statsCacheTTLSeconds)
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) cachedStats(ctx context.Context) *entities.CatalogStats {
	raw, err := h.cache.Get(ctx, statsCacheKey)
	if err != nil {
		return nil
	}
	var stats entities.CatalogStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}
