package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration shared by the indexer, classifier, and
// feed server processes.
type Config struct {
	// Hostname is the public hostname where the feed server is reachable
	// (used for did:web).
	Hostname string

	// Port is the HTTP server port.
	Port int

	// PublisherDID is the DID of the account that published the feed
	// generator records.
	PublisherDID string

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// FirehoseHost is the hostname (no scheme) of the
	// com.atproto.sync.subscribeRepos host to subscribe to.
	FirehoseHost string

	// ChatGPTAPIKey authenticates the classifier's chat completion calls.
	ChatGPTAPIKey string
}

// ServiceDID returns the did:web for this feed generator based on the hostname.
func (c *Config) ServiceDID() string {
	return "did:web:" + c.Hostname
}

// Load reads configuration from environment variables with sensible
// defaults. DatabaseURL, ChatGPTAPIKey, and PublisherDID have no usable
// default and are required.
func Load() (*Config, error) {
	port := 3030
	if p := os.Getenv("PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
	}

	hostname := os.Getenv("FEED_GENERATOR_HOSTNAME")
	if hostname == "" {
		hostname = "localhost"
	}

	publisherDID := os.Getenv("PUBLISHER_DID")
	if publisherDID == "" {
		return nil, fmt.Errorf("PUBLISHER_DID is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	chatGPTAPIKey := os.Getenv("CHAT_GPT_API_KEY")
	if chatGPTAPIKey == "" {
		return nil, fmt.Errorf("CHAT_GPT_API_KEY is required")
	}

	firehoseHost := os.Getenv("FIREHOSE_HOST")
	if firehoseHost == "" {
		firehoseHost = "bsky.network"
	}

	return &Config{
		Hostname:      hostname,
		Port:          port,
		PublisherDID:  publisherDID,
		DatabaseURL:   dbURL,
		FirehoseHost:  firehoseHost,
		ChatGPTAPIKey: chatGPTAPIKey,
	}, nil
}
