// Command api is the Smart Pet Care API server.
//
// Usage:
//
//	petcare-api
//	API_PORT=8080 STORE_DRIVER=sqlite petcare-api

// @title Smart Pet Care API
// @version 1.0.0
// @description Telemetry ingestion, activity statistics and notifications for a single monitored pet.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Smart Pet Care
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/petcare-telemetry/internal/api"
	"github.com/albapepper/petcare-telemetry/internal/api/handler"
	"github.com/albapepper/petcare-telemetry/internal/cache"
	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/ingest"
	"github.com/albapepper/petcare-telemetry/internal/listener"
	"github.com/albapepper/petcare-telemetry/internal/maintenance"
	"github.com/albapepper/petcare-telemetry/internal/notifications"
	"github.com/albapepper/petcare-telemetry/internal/store/backend"

	_ "github.com/albapepper/petcare-telemetry/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Open storage
	logger.Info("Opening store...", "driver", cfg.StoreDriver)
	st, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("Store ready", "driver", cfg.StoreDriver)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled, cfg.CacheTTL)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "ttl", cfg.CacheTTL)

	// Push delivery worker, with NATS fan-out when configured
	pipeline := notifications.StartPipeline(cfg, st, logger)

	ingester := ingest.NewService(st, ingest.Options{
		Rules: notifications.Rules{
			LowWaterMark:    cfg.LowWaterMark,
			HighTemperature: cfg.HighTemperature,
			Cooldown:        cfg.AlertCooldown,
		},
		MaxAttempts: cfg.IngestMaxRetries,
		Queue:       pipeline.Worker,
		Cache:       appCache,
		Logger:      logger,
	})

	// MQTT telemetry listener (if a broker is configured)
	if l := listener.New(cfg, ingester, logger); l != nil {
		go l.Start(ctx)
	}

	// Start retention ticker
	go maintenance.Start(ctx, st, appCache, maintenance.ConfigFrom(cfg), logger)

	// Create router
	router := api.NewRouter(handler.New(st, ingester, appCache, logger), cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Smart Pet Care API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	_ = pipeline.Stop(shutdownCtx)
	logger.Info("Server stopped")
}
