// Package classifier implements the profile enrichment loop: it drains the
// backlog of profiles the indexing processor has seen but never classified,
// fetches each one's profile record, and asks a chat model to guess a
// country of residence from the display name and bio.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanrijn/nederlandskie/internal/bluesky"
	"github.com/vanrijn/nederlandskie/internal/domain"
)

const (
	pollInterval = 10 * time.Second
	batchSize    = 20
)

// Classifier runs the enrichment loop.
type Classifier struct {
	profiles domain.ProfileRepository
	bluesky  *bluesky.Client
	chat     *ChatClient
	logger   *slog.Logger
}

// NewClassifier builds a Classifier.
func NewClassifier(profiles domain.ProfileRepository, blueskyClient *bluesky.Client, chat *ChatClient, logger *slog.Logger) *Classifier {
	return &Classifier{profiles: profiles, bluesky: blueskyClient, chat: chat, logger: logger}
}

// Start runs the classification loop until ctx is cancelled. When there's
// nothing left to classify it sleeps for pollInterval rather than busy
// looping, then checks again.
func (c *Classifier) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dids, err := c.profiles.FetchUnprocessedDIDs(ctx, batchSize)
		if err != nil {
			c.logger.Error("failed to fetch unprocessed profiles", "error", err)
			if !sleep(ctx, pollInterval) {
				return ctx.Err()
			}
			continue
		}

		if len(dids) == 0 {
			if !sleep(ctx, pollInterval) {
				return ctx.Err()
			}
			continue
		}

		for _, did := range dids {
			if err := c.classifyOne(ctx, did); err != nil {
				c.logger.Error("failed to classify profile", "did", did, "error", err)
			}
		}
	}
}

func (c *Classifier) classifyOne(ctx context.Context, did string) error {
	record, err := c.bluesky.FetchProfileRecord(ctx, did)
	if err != nil && !errors.Is(err, bluesky.ErrProfileNotFound) {
		return fmt.Errorf("fetch profile record: %w", err)
	}

	var country string
	if errors.Is(err, bluesky.ErrProfileNotFound) {
		country = "xx"
	} else {
		country, err = c.chat.GuessCountry(ctx, record.DisplayName, record.Description)
		if err != nil {
			return fmt.Errorf("guess country: %w", err)
		}
	}

	if err := c.profiles.StoreClassification(ctx, did, country); err != nil {
		return fmt.Errorf("store classification: %w", err)
	}

	c.logger.Info("classified profile", "did", did, "country", country)
	return nil
}

// sleep waits for d or ctx cancellation, whichever comes first. It returns
// false if ctx was cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
