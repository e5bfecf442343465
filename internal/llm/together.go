package llm

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

const defaultTogetherModel = "meta-llama/Llama-3.3-70B-Instruct-Turbo"

// Together implements Provider against Together's OpenAI-compatible
// chat completions API.
type Together struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// TogetherOption configures the provider.
type TogetherOption func(*Together)

// WithTogetherBaseURL sets a custom base URL, mainly for tests.
func WithTogetherBaseURL(url string) TogetherOption {
	return func(t *Together) { t.baseURL = strings.TrimRight(url, "/") }
}

// WithTogetherModel overrides the default model.
func WithTogetherModel(model string) TogetherOption {
	return func(t *Together) { t.model = model }
}

// WithTogetherHTTPClient sets a custom HTTP client.
func WithTogetherHTTPClient(client *http.Client) TogetherOption {
	return func(t *Together) { t.client = client }
}

// WithTogetherMaxTokens overrides the completion token cap.
func WithTogetherMaxTokens(n int) TogetherOption {
	return func(t *Together) {
		if n > 0 {
			t.maxTokens = n
		}
	}
}

// WithTogetherTemperature overrides the sampling temperature.
func WithTogetherTemperature(temp float64) TogetherOption {
	return func(t *Together) {
		if temp > 0 {
			t.temperature = temp
		}
	}
}

// NewTogether creates the provider. The key is required.
func NewTogether(apiKey string, opts ...TogetherOption) (*Together, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	t := &Together{
		apiKey:      apiKey,
		baseURL:     "https://api.together.xyz/v1",
		model:       defaultTogetherModel,
		maxTokens:   1024,
		temperature: 0.7,
		client:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the provider name.
func (t *Together) Name() string { return "together" }

// Ping verifies the API key by listing models.
func (t *Together) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: key rejected", ErrNoAPIKey)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrProviderDown, resp.StatusCode)
	}
	return nil
}

// Complete sends one chat completion request and returns the first
// choice's content.
func (t *Together) Complete(ctx context.Context, system, user string) (string, error) {
	body := togetherChatRequest{
		Model: t.model,
		Messages: []togetherMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   t.maxTokens,
		Temperature: t.temperature,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("together: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()

	if err := t.checkError(resp); err != nil {
		return "", err
	}

	var result togetherChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformed)
	}
	return result.Choices[0].Message.Content, nil
}

// checkError maps non-200 statuses onto the sentinel taxonomy.
func (t *Together) checkError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := extractAPIMessage(body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrNoAPIKey, msg)
	case http.StatusPaymentRequired, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrQuota, msg)
	case http.StatusTooManyRequests, 529:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d: %s", ErrProviderDown, resp.StatusCode, msg)
	}
	return fmt.Errorf("together: API error (%d): %s", resp.StatusCode, msg)
}

func extractAPIMessage(body []byte) string {
	var apiErr togetherErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(body))
}

type togetherChatRequest struct {
	Model       string            `json:"model"`
	Messages    []togetherMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
}

type togetherMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type togetherChatResponse struct {
	ID      string           `json:"id"`
	Model   string           `json:"model"`
	Choices []togetherChoice `json:"choices"`
}

type togetherChoice struct {
	Index        int             `json:"index"`
	Message      togetherMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type togetherErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
