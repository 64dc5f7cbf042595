// Package main is the entry point for the headshot-service HTTP server.
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

	"github.com/rmarek/headshot-service/internal/config"
	"github.com/rmarek/headshot-service/internal/detector"
	"github.com/rmarek/headshot-service/internal/engine"
	"github.com/rmarek/headshot-service/internal/logging"
	"github.com/rmarek/headshot-service/internal/server"
	"github.com/rmarek/headshot-service/internal/service"
	"github.com/rmarek/headshot-service/internal/storage"
	"github.com/rmarek/headshot-service/internal/transform"
)

func main() {
	// run() keeps deferred cleanup working; os.Exit skips defers.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("HEADSHOT_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync commonly fails on stderr; the error carries no signal.
	defer func() { _ = logger.Sync() }()

	// libvips must be initialized once per process, before any pipeline
	// work, and shut down on exit.
	transform.Startup(cfg.Transform.Concurrency)
	defer transform.Shutdown()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	cache, err := storage.NewCache(cfg.Storage.CacheDir)
	if err != nil {
		return fmt.Errorf("creating output cache: %w", err)
	}

	jobs := storage.NewJobRepository(db)

	faces := detector.New(detector.Config{
		CascadePath:      cfg.Detector.CascadePath,
		MinSize:          cfg.Detector.MinSize,
		MaxSize:          cfg.Detector.MaxSize,
		ShiftFactor:      cfg.Detector.ShiftFactor,
		ScaleFactor:      cfg.Detector.ScaleFactor,
		ClusterIoU:       cfg.Detector.ClusterIoU,
		QualityThreshold: cfg.Detector.QualityThreshold,
		MaxDetectionEdge: cfg.Detector.MaxDetectionEdge,
	}, logger)

	orchestrator := engine.NewOrchestrator(faces, transform.NewEngine(logger), logger)
	processor := service.NewProcessService(orchestrator, jobs, cache, logger)

	srv := server.New(cfg, server.Deps{
		Processor: processor,
		Jobs:      jobs,
	}, logger)

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

	// Give in-flight requests 10 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
