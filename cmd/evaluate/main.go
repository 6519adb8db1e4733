package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/adapters/database"
	"github.com/hajjtrust/agency-assistant/internal/application/services"
	"github.com/hajjtrust/agency-assistant/internal/evaluation"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/openai"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/postgres"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/observability"
	"github.com/hajjtrust/agency-assistant/pkg/config"
)

func main() {
	var casesPath string
	var verbose bool
	var timeoutSeconds int

	flag.StringVar(&casesPath, "cases", "testdata/golden_cases.json", "Path to the golden cases file")
	flag.BoolVar(&verbose, "verbose", false, "Print per-case results")
	flag.IntVar(&timeoutSeconds, "timeout", 600, "Overall run timeout in seconds")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-evaluate", cfg.Server.Env)

	cases, err := evaluation.LoadGoldenCases(casesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", casesPath).Msg("Failed to load golden cases")
	}
	if err := evaluation.ValidateGoldenCases(cases); err != nil {
		log.Fatal().Err(err).Msg("Golden cases file is invalid")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	gateway, err := openai.NewClient(&cfg.OpenAI, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create completion client")
	}

	agencyRepo := database.NewAgencyAdapter(pgClient, nil)

	orchestrator := services.NewConversationOrchestrator(
		services.NewIntentRouter(gateway),
		services.NewQuerySynthesizer(gateway, services.NewHeuristicQueryPlanner()),
		services.NewFuzzyEntityMatcher(cfg.Assistant.FuzzyThreshold),
		services.NewResultSummarizer(gateway),
		services.NewQuerySafetyFilter(),
		agencyRepo,
		gateway,
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	log.Info().Int("cases", len(cases)).Msg("Running evaluation")
	summary := evaluation.NewRunner(orchestrator).Run(ctx, cases)

	printSummary(summary, verbose)

	if summary.PolicyViolations > 0 {
		os.Exit(1)
	}
}

func printSummary(summary *evaluation.Summary, verbose bool) {
	fmt.Printf("Cases:               %d\n", summary.TotalCases)
	fmt.Printf("Intent accuracy:     %.1f%%\n", summary.IntentAccuracy*100)
	fmt.Printf("Language compliance: %.1f%%\n", summary.LanguageCompliance*100)
	fmt.Printf("Marker hit rate:     %.1f%%\n", summary.MarkerHitRate*100)
	fmt.Printf("Policy violations:   %d\n", summary.PolicyViolations)
	fmt.Printf("Avg latency:         %s\n", summary.AvgLatency)

	fmt.Println("\nBy intent:")
	for intent, group := range summary.ByIntent {
		fmt.Printf("  %-10s %d/%d\n", intent, group.Correct, group.Count)
	}

	if !verbose {
		return
	}

	fmt.Println("\nCases:")
	for _, result := range summary.Results {
		status := "ok"
		if !result.IntentCorrect {
			status = fmt.Sprintf("intent=%s", result.GotIntent)
		}
		if result.PolicyViolation != "" {
			status = "policy: " + result.PolicyViolation
		}
		fmt.Printf("  [%s] %-40q %s\n", result.CaseID, result.Utterance, status)
	}
}
