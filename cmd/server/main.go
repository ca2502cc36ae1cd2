package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"klisi/internal/config"
	"klisi/internal/logging"
	"klisi/internal/store"
	"klisi/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source", cfg.Source.Path,
		"store", cfg.Store.Path,
		"rebuild_policy", cfg.Store.Rebuild,
	)

	// One-shot startup build: ingest the source table into the store.
	// Build failures degrade service instead of aborting; every query then
	// returns a structured "unavailable" response until the next restart.
	ctx := context.Background()
	verbs, diag := store.Bootstrap(ctx, cfg.Store, cfg.Source)
	defer verbs.Close()

	if verbs.Available() {
		count, err := verbs.Count(ctx)
		if err != nil {
			slog.Warn("could not count verbs", "error", err)
		}
		slog.Info("verb store ready",
			"build_id", diag.BuildID,
			"rebuilt", diag.Rebuilt,
			"verbs", count,
			"forms", len(verbs.FormColumns()),
		)
	} else {
		slog.Error("verb store unavailable, serving degraded", "build_id", diag.BuildID)
	}

	// Create server with config
	server := web.NewServer(verbs, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
