// Package main starts the veterinary diagnostic report server. All report
// state lives in memory for the session, seeded from the demonstration
// study; nothing survives a restart.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vetreport-server/internal/ai"
	"github.com/vetreport-server/internal/annotation"
	"github.com/vetreport-server/internal/api"
	"github.com/vetreport-server/internal/audit"
	"github.com/vetreport-server/internal/config"
	"github.com/vetreport-server/internal/export"
	"github.com/vetreport-server/internal/fixture"
	"github.com/vetreport-server/internal/logging"
	"github.com/vetreport-server/internal/notify"
	"github.com/vetreport-server/internal/report"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	log.Printf("Starting veterinary report server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Session collaborators
	journal, err := audit.NewSQLiteJournal()
	if err != nil {
		log.Fatalf("Failed to open session journal: %v", err)
	}
	defer journal.Close()

	hub := notify.NewHub(logger)
	provider := ai.NewSimulatedProvider(logger, cfg.Regeneration.Delay)

	engine, err := annotation.NewEngine(cfg.Annotation.CacheSize)
	if err != nil {
		log.Fatalf("Failed to create annotation engine: %v", err)
	}

	service := report.NewService(fixture.SeedReport(), report.Options{
		Provider:           provider,
		Notifier:           hub,
		Journal:            journal,
		Logger:             logger,
		DispatchPerMinute:  cfg.Regeneration.DispatchPerMinute,
		BreakerMaxFailures: cfg.Regeneration.BreakerMaxFailures,
		BreakerCooldown:    cfg.Regeneration.BreakerCooldown,
	})

	exporter := export.NewGenerator(cfg.Export.LinesPerPage)

	server := api.NewServer(cfg, logger, service, engine, hub, journal, exporter)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Println("Server stopped")
}
