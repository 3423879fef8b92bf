package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanrijn/nederlandskie/internal/bluesky"
	"github.com/vanrijn/nederlandskie/internal/classifier"
	"github.com/vanrijn/nederlandskie/internal/config"
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

	// FetchProfileRecord is an unauthenticated XRPC call, so the classifier
	// never logs in; it just needs a client pointed at a PDS that can
	// resolve arbitrary DIDs' profile records.
	blueskyClient := bluesky.NewClient("")
	chatClient := classifier.NewChatClient(cfg.ChatGPTAPIKey)

	c := classifier.NewClassifier(repo, blueskyClient, chatClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Start(ctx)
	}()

	logger.Info("classifier started")

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("classifier exited: %w", err)
		}
	}

	return nil
}
