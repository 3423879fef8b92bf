package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanrijn/nederlandskie/internal/algos"
	"github.com/vanrijn/nederlandskie/internal/config"
	"github.com/vanrijn/nederlandskie/internal/domain"
	"github.com/vanrijn/nederlandskie/internal/httpserver"
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
	logger.Info("connected to database")

	// The feed server only needs a registry to look algorithms up by name
	// and fetch posts; it never evaluates ShouldIndex, so the detector it's
	// built with is never exercised here. A real *langdetect.Detector is
	// still used rather than a nil one so the registry's construction path
	// matches the indexer's exactly.
	detector := langdetect.NewDetector()
	registry := algos.BuildRegistry(detector, repo, repo)

	feedService := domain.NewFeedService(registry, cfg.PublisherDID, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	server := httpserver.NewServer(cfg, feedService, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("feed server started", "port", cfg.Port, "hostname", cfg.Hostname, "feeds", feedService.FeedURIs())

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
