package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"PORT", "FEED_GENERATOR_HOSTNAME", "PUBLISHER_DID",
		"DATABASE_URL", "CHAT_GPT_API_KEY", "FIREHOSE_HOST",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}

func TestLoadRequiresPublisherDID(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("CHAT_GPT_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUBLISHER_DID")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUBLISHER_DID", "did:plc:abc")
	t.Setenv("CHAT_GPT_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUBLISHER_DID", "did:plc:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("CHAT_GPT_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3030, cfg.Port)
	assert.Equal(t, "localhost", cfg.Hostname)
	assert.Equal(t, "bsky.network", cfg.FirehoseHost)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")
	t.Setenv("PUBLISHER_DID", "did:plc:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("CHAT_GPT_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("FEED_GENERATOR_HOSTNAME", "feed.example.com")
	t.Setenv("PUBLISHER_DID", "did:plc:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("CHAT_GPT_API_KEY", "key")
	t.Setenv("FIREHOSE_HOST", "bsky.custom.network")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "feed.example.com", cfg.Hostname)
	assert.Equal(t, "bsky.custom.network", cfg.FirehoseHost)
}

func TestServiceDID(t *testing.T) {
	cfg := &Config{Hostname: "feed.example.com"}
	assert.Equal(t, "did:web:feed.example.com", cfg.ServiceDID())
}
