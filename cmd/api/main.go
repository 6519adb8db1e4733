package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/adapters/cache"
	"github.com/hajjtrust/agency-assistant/internal/adapters/database"
	"github.com/hajjtrust/agency-assistant/internal/api/handlers"
	"github.com/hajjtrust/agency-assistant/internal/api/routes"
	"github.com/hajjtrust/agency-assistant/internal/application/services"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/openai"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/postgres"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/redis"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/observability"
	"github.com/hajjtrust/agency-assistant/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	log.Info().
		Str("service", cfg.OTEL.ServiceName).
		Str("version", cfg.OTEL.ServiceVersion).
		Str("env", cfg.Server.Env).
		Msg("Starting API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()
	log.Info().Msg("Redis client initialized")

	cacheProvider := cache.NewRedisAdapter(redisClient)

	gateway, err := openai.NewClient(&cfg.OpenAI, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize completion client")
	}

	agencyRepo := database.NewAgencyAdapter(pgClient, metrics)
	reportRepo := database.NewReportAdapter(pgClient, metrics)

	router := services.NewIntentRouter(gateway)
	planner := services.NewHeuristicQueryPlanner()
	synthesizer := services.NewQuerySynthesizer(gateway, planner)
	matcher := services.NewFuzzyEntityMatcher(cfg.Assistant.FuzzyThreshold)
	summarizer := services.NewResultSummarizer(gateway)
	safety := services.NewQuerySafetyFilter()

	orchestrator := services.NewConversationOrchestrator(
		router,
		synthesizer,
		matcher,
		summarizer,
		safety,
		agencyRepo,
		gateway,
		metrics,
	)

	sessions := services.NewSessionService(
		cacheProvider,
		cfg.Assistant.MaxContextTurns,
		cfg.Assistant.MaxMessageRunes,
		cfg.Assistant.SessionTTLSeconds,
	)
	reportIntake := services.NewReportService(reportRepo, cacheProvider, gateway, cfg.Assistant.SessionTTLSeconds)

	chatHandler := handlers.NewChatHandler(orchestrator, sessions, cacheProvider)
	reportHandler := handlers.NewReportHandler(reportIntake)
	statsHandler := handlers.NewStatsHandler(agencyRepo, cacheProvider)

	apiRouter := routes.NewRouter(chatHandler, reportHandler, statsHandler, log.Logger, metrics)
	handler := apiRouter.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
