package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.openai.com/v1"
const defaultModel = "gpt-4o-mini"

// countryPrompt is the fixed system prompt sent with every classification
// request. The model is expected to answer with exactly a two-letter
// lowercase country code, or "xx" if it cannot determine one.
const countryPrompt = "You are a tool that attempts to guess where a person is likely to be from based on their name and short bio. Respond with only a two-letter lowercase country code. If you are unable to determine a country, respond with xx."

// ChatClient is a minimal OpenAI-compatible chat completion client, used to
// ask a model to guess a profile's country of residence from its display
// name and bio.
type ChatClient struct {
	apiBase    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewChatClient builds a ChatClient against the OpenAI chat completions API
// (or any OpenAI-compatible endpoint, via apiBase).
func NewChatClient(apiKey string) *ChatClient {
	return &ChatClient{
		apiBase: defaultAPIBase,
		apiKey:  apiKey,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GuessCountry asks the model to infer a two-letter lowercase country code
// from a profile's display name and bio. It never returns an error because
// the model declined to guess; it returns "xx" in that case, matching the
// fallback the system prompt instructs the model to use.
func (c *ChatClient) GuessCountry(ctx context.Context, displayName, description string) (string, error) {
	userMessage := fmt.Sprintf("Name: %s\nBio: %s", displayName, description)

	req := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: countryPrompt},
			{Role: "user", Content: userMessage},
		},
	}

	var resp chatCompletionResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "xx", nil
	}

	code := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	if len(code) != 2 {
		return "xx", nil
	}
	return code, nil
}

func (c *ChatClient) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
