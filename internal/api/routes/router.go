package routes

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hajjtrust/agency-assistant/internal/api/handlers"
	"github.com/hajjtrust/agency-assistant/internal/api/middleware"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	chatHandler   *handlers.ChatHandler
	reportHandler *handlers.ReportHandler
	statsHandler  *handlers.StatsHandler

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	chatHandler *handlers.ChatHandler,
	reportHandler *handlers.ReportHandler,
	statsHandler *handlers.StatsHandler,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		chatHandler:   chatHandler,
		reportHandler: reportHandler,
		statsHandler:  statsHandler,
		logger:        logger,
		metrics:       metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Conversation endpoints
	r.mux.HandleFunc("POST /api/chat", r.chatHandler.HandleChat)
	r.mux.HandleFunc("GET /api/chat/export", r.chatHandler.HandleExport)
	r.mux.HandleFunc("POST /api/chat/reset", r.chatHandler.HandleReset)

	// Complaint report endpoints
	r.mux.HandleFunc("POST /api/report/start", r.reportHandler.HandleStart)
	r.mux.HandleFunc("POST /api/report", r.reportHandler.HandleAnswer)

	// Catalog stats endpoint
	r.mux.HandleFunc("GET /api/stats", r.statsHandler.HandleStats)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(r.logger)(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflight responses skip the pipeline
	handler = middleware.CORSMiddleware(handler)

	return handler
}
