package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanrijn/nederlandskie/internal/algos"
	"github.com/vanrijn/nederlandskie/internal/atfirehose"
	"github.com/vanrijn/nederlandskie/internal/config"
	"github.com/vanrijn/nederlandskie/internal/domain"
	"github.com/vanrijn/nederlandskie/internal/langdetect"
	"github.com/vanrijn/nederlandskie/internal/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	repo, err := postgres.NewRepository(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("connected to database")

	detector := langdetect.NewDetector()
	registry := algos.BuildRegistry(detector, repo, repo)
	logger.Info("built algorithm registry", "algorithms", registry.Names())

	processor := domain.NewIndexingProcessor(registry, repo, repo, repo, "indexer", cfg.FirehoseHost, logger)
	subscriber := atfirehose.NewSubscriber(cfg.FirehoseHost, processor, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- subscriber.Start(ctx)
	}()

	logger.Info("indexer started", "firehose_host", cfg.FirehoseHost)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("firehose subscriber exited: %w", err)
		}
	}

	return nil
}
