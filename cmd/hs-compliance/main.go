package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hs-compliance/internal/api"
	"hs-compliance/internal/api/handlers"
	"hs-compliance/internal/app"
	"hs-compliance/internal/service"
	"hs-compliance/pkg/auth"
	"hs-compliance/pkg/config"
	"hs-compliance/pkg/logger"
	"hs-compliance/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// @title HS Compliance API
// @version 1.0
// @description Import/export compliance lookups against an HS/HTS tariff schedule

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting HS compliance service")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	ctx := context.Background()
	components, err := app.Build(ctx, cfg, m, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize knowledge pipeline", zap.Error(err))
	}
	defer components.Close()

	// The service starts serving with whatever Init produced; a failed build
	// leaves an empty snapshot that /admin/regenerate can replace later.
	if report, err := components.Knowledge.Init(ctx); err != nil {
		appLogger.Error("Initial knowledge build failed", zap.Error(err))
	} else {
		appLogger.Info("Knowledge ready",
			zap.Bool("from_cache", report.FromCache),
			zap.Int("codes", report.Codes),
			zap.Int("passages", report.Passages),
		)
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	engine := service.NewDecisionEngine(cfg.Compliance.Policy.Permitted, components.Completer, m, appLogger)
	complianceService := service.NewComplianceService(components.Knowledge, engine, m, appLogger)
	ragService := service.NewRAGService(components.Knowledge, components.Embedder, components.Completer, cfg.Knowledge.TopK, appLogger)

	server := api.SetupRouter(api.Handlers{
		Compliance: handlers.NewComplianceHandler(complianceService, appLogger),
		Knowledge:  handlers.NewKnowledgeHandler(ragService, appLogger),
		Admin:      handlers.NewAdminHandler(components.Knowledge, jwtManager, &cfg.Admin, appLogger),
		Health:     handlers.NewHealthHandler(components.Knowledge),
	}, api.RouterConfig{
		JWTManager:   jwtManager,
		Metrics:      m,
		Gatherer:     registry,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		RequestLog:   cfg.Logger.Level == "debug",
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := server.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
