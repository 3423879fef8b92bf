package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanrijn/nederlandskie/internal/config"
	"github.com/vanrijn/nederlandskie/internal/postgres"
)

// retention is how long an indexed post sticks around before the janitor
// sweeps it. Posts feed a recency-ordered skeleton, so nothing outside this
// window is ever going to be served anyway.
const retention = 150 * 24 * time.Hour

const sweepInterval = time.Hour

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
	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	for {
		earlierThan := time.Now().UTC().Add(-retention)
		logger.Info("deleting posts older than", "cutoff", earlierThan)

		deleted, err := repo.DeleteOldPosts(ctx, earlierThan)
		if err != nil {
			logger.Error("failed to delete old posts", "error", err)
		} else if deleted > 0 {
			logger.Info("deleted old posts", "count", deleted)
		} else {
			logger.Info("no posts to delete")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sweepInterval):
		}
	}
}
