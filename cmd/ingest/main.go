// Command ingest builds the knowledge cache offline so the server can start
// from it without extracting or embedding anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hs-compliance/internal/app"
	"hs-compliance/internal/service"
	"hs-compliance/pkg/config"
	"hs-compliance/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	source := flag.String("source", "", "tariff schedule to ingest (defaults to KNOWLEDGE_SOURCE_PATH)")
	force := flag.Bool("force", false, "drop the cache and rebuild even when it is up to date")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *source != "" {
		cfg.Knowledge.SourcePath = *source
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, nil, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize knowledge pipeline", zap.Error(err))
	}
	defer components.Close()

	appLogger.Info("Starting ingestion",
		zap.String("source", cfg.Knowledge.SourcePath),
		zap.Bool("force", *force),
	)

	var report *service.RegenerationReport
	if *force {
		report, err = components.Knowledge.Regenerate(ctx)
	} else {
		report, err = components.Knowledge.Init(ctx)
	}
	if err != nil {
		appLogger.Error("Ingestion failed", zap.Error(err))
		components.Close()
		logger.Sync()
		os.Exit(1)
	}

	fmt.Printf("source:     %s\n", report.Source)
	fmt.Printf("hash:       %s\n", report.SourceHash)
	fmt.Printf("from cache: %t\n", report.FromCache)
	fmt.Printf("codes:      %d\n", report.Codes)
	fmt.Printf("terms:      %d\n", report.Terms)
	fmt.Printf("passages:   %d (%d failed)\n", report.Passages, report.EmbeddingFailures)
	fmt.Printf("duration:   %s\n", report.Duration)
}
