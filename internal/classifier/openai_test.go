package classifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatClient(apiBase string) *ChatClient {
	return &ChatClient{
		apiBase:    apiBase,
		apiKey:     "test-key",
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
}

func TestGuessCountryReturnsModelAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "nl"}}},
		})
	}))
	defer server.Close()

	client := newTestChatClient(server.URL)
	country, err := client.GuessCountry(t.Context(), "Jan", "Woon in Amsterdam")
	require.NoError(t, err)
	assert.Equal(t, "nl", country)
}

func TestGuessCountryFallsBackToXXOnNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionResponse{})
	}))
	defer server.Close()

	client := newTestChatClient(server.URL)
	country, err := client.GuessCountry(t.Context(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "xx", country)
}

func TestGuessCountryFallsBackToXXOnMalformedAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "I cannot determine this."}}},
		})
	}))
	defer server.Close()

	client := newTestChatClient(server.URL)
	country, err := client.GuessCountry(t.Context(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "xx", country)
}
