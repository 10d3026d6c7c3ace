package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"obras/internal/amqp"
	"obras/internal/backend"
	"obras/internal/config"
	"obras/internal/gateway"
	applog "obras/internal/log"
	"obras/internal/sheets"
	gsheet "obras/internal/sheets/google"
	memsheet "obras/internal/sheets/memory"
	"obras/internal/snapshot"
	"obras/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting obras-worker")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker reads through the same store the server writes to.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to build backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(slog.Default())
	result, err := factory.CreateStore(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	// The worker never publishes, it only consumes.
	gw := gateway.New(result.Store, nil)
	loader := snapshot.NewLoader(gw, cfg.SnapshotTTL)

	// Report sink: Google Sheets when configured, in-memory otherwise
	// so the worker stays runnable without credentials.
	var sink sheets.ReportSink
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sink = memsheet.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	reportWorker := worker.NewReportWorker(loader, sink)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, publish a full set of reports before consuming.
	logger.Info("Performing startup sync...")
	if err := reportWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
		// Don't exit - continue with normal operation
	}

	// Initialize AMQP client for consuming mutation messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	go func() {
		if err := amqpClient.ConsumeMutations(ctx, reportWorker.HandleMutation); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic sync catches mutations missed while disconnected.
	go reportWorker.RunPeriodic(ctx, cfg.SyncInterval)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight sheet writes a moment to finish
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
