package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vanrijn/nederlandskie/internal/bluesky"
	"github.com/vanrijn/nederlandskie/internal/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		handles string
		dids    string
		country string
	)

	flag.StringVar(&handles, "handle", "", "comma-separated handles of the users to force the country for")
	flag.StringVar(&dids, "did", "", "comma-separated DIDs of the users to force the country for")
	flag.StringVar(&country, "country", "", "two-letter country code to store")
	flag.Parse()

	handleList := splitNonEmpty(handles)
	didList := splitNonEmpty(dids)

	if len(handleList) == 0 && len(didList) == 0 {
		return fmt.Errorf("either --handle or --did must be supplied")
	}
	if country == "" {
		return fmt.Errorf("--country is required")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable must be set")
	}

	ctx := context.Background()

	client := bluesky.NewClient("")
	repo, err := postgres.NewRepository(databaseURL)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()

	for _, handle := range handleList {
		did, err := client.ResolveHandle(ctx, handle)
		if err != nil {
			return fmt.Errorf("resolve handle %s: %w", handle, err)
		}
		fmt.Printf("Resolved handle %q to did %q\n", handle, did)

		if err := repo.ForceCountry(ctx, did, country); err != nil {
			return fmt.Errorf("force country for %s: %w", did, err)
		}
		fmt.Printf("Stored %q as the country for profile with did %q\n", country, did)
	}

	for _, did := range didList {
		if err := repo.ForceCountry(ctx, did, country); err != nil {
			return fmt.Errorf("force country for %s: %w", did, err)
		}
		fmt.Printf("Stored %q as the country for profile with did %q\n", country, did)
	}

	return nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
