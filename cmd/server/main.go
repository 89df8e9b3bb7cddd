// Package main is the entry point for the visibility-service HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/discoverly/visibility-service/internal/config"
	"github.com/discoverly/visibility-service/internal/fingerprint"
	"github.com/discoverly/visibility-service/internal/llm"
	"github.com/discoverly/visibility-service/internal/server"
	"github.com/discoverly/visibility-service/internal/service"
	"github.com/discoverly/visibility-service/internal/storage"
)

func main() {
	// run() is separate so deferred cleanup executes before os.Exit.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("VIS_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync commonly fails on stdout/stderr; not a real problem.
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	deps := buildDeps(cfg, storage.NewCallRepository(db), logger)
	srv := server.New(cfg, deps, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

// buildDeps wires the provider stack from configuration.
func buildDeps(cfg *config.Config, callRepo storage.CallRepository, logger *zap.Logger) server.Deps {
	clients := llm.BuildClients(llm.Credentials{
		OpenAI:    cfg.Providers.OpenAI.APIKey,
		Anthropic: cfg.Providers.Anthropic.APIKey,
		Google:    cfg.Providers.Google.APIKey,
		Replicate: cfg.Providers.Replicate.APIKey,
		Together:  cfg.Providers.Together.APIKey,
	}, llm.PollConfig{
		Interval:    time.Duration(cfg.Testing.PollIntervalMs) * time.Millisecond,
		MaxAttempts: cfg.Testing.PollMaxAttempts,
	})

	router := llm.NewRouter(
		clients,
		cfg.Testing.Spacing(),
		cfg.Testing.Timeout(),
		llm.RetryConfig{
			MaxAttempts:     cfg.Testing.RetryMaxAttempts,
			InitialInterval: time.Duration(cfg.Testing.RetryInitialMs) * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		callRepo,
		logger,
	)

	pairs := cfg.Providers.EnabledPairs()
	extractor := fingerprint.NewExtractor(router, logger)

	return server.Deps{
		Orchestrator: service.NewOrchestrator(router, pairs, cfg.Testing.WorkerLimit, logger),
		Competitive:  service.NewCompetitiveOrchestrator(router, extractor, pairs, cfg.Testing.WorkerLimit, logger),
		CallRepo:     callRepo,
		Pairs:        pairs,
	}
}
