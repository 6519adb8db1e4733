package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/api/handlers"
	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/repositories"
)

type stubAgencyRepo struct {
	statsCalls int
	stats      *entities.CatalogStats
	err        error
}

func (s *stubAgencyRepo) ExecuteSelect(_ context.Context, _ string, _ ...any) (*repositories.QueryResult, error) {
	return &repositories.QueryResult{}, nil
}

func (s *stubAgencyRepo) KnownValues(_ context.Context) (map[entities.MatchField][]string, error) {
	return nil, nil
}

func (s *stubAgencyRepo) Stats(_ context.Context) (*entities.CatalogStats, error) {
	s.statsCalls++
	return s.stats, s.err
}

func TestStatsHandler_HandleStats(t *testing.T) {
	repo := &stubAgencyRepo{stats: &entities.CatalogStats{
		TotalAgencies:      142,
		AuthorizedAgencies: 97,
		Countries:          12,
		Cities:             38,
	}}
	handler := handlers.NewStatsHandler(repo, newMemoryCache())

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()

	handler.HandleStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats entities.CatalogStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 142, stats.TotalAgencies)
	assert.Equal(t, 97, stats.AuthorizedAgencies)
}

func TestStatsHandler_HandleStats_ServesFromCache(t *testing.T) {
	repo := &stubAgencyRepo{stats: &entities.CatalogStats{TotalAgencies: 10}}
	handler := handlers.NewStatsHandler(repo, newMemoryCache())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/stats", nil)
		w := httptest.NewRecorder()
		handler.HandleStats(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, repo.statsCalls)
}

func TestStatsHandler_HandleStats_StoreFailure(t *testing.T) {
	repo := &stubAgencyRepo{err: assert.AnError}
	handler := handlers.NewStatsHandler(repo, newMemoryCache())

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()

	handler.HandleStats(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
