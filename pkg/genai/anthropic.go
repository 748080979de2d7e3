package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	defaultAnthropicURL     = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel   = "claude-haiku-4-20250514"
	defaultAnthropicVersion = "2023-06-01"
)

// AnthropicBackend generates text through the Anthropic Messages API. It is
// the highest-quality option for Arabic report prose, at the cost of a paid
// key.
type AnthropicBackend struct {
	apiKey     string
	model      string
	endpoint   string
	apiVersion string
	client     *http.Client
}

// AnthropicOption configures the AnthropicBackend.
type AnthropicOption func(*AnthropicBackend)

// WithAnthropicEndpoint points the backend at a different messages URL,
// mainly for tests.
func WithAnthropicEndpoint(url string) AnthropicOption {
	return func(b *AnthropicBackend) {
		b.endpoint = url
	}
}

// WithAnthropicModel selects a model other than the default.
func WithAnthropicModel(model string) AnthropicOption {
	return func(b *AnthropicBackend) {
		b.model = model
	}
}

// WithAnthropicAPIKey sets the key explicitly, bypassing the environment.
func WithAnthropicAPIKey(key string) AnthropicOption {
	return func(b *AnthropicBackend) {
		b.apiKey = key
	}
}

// WithAnthropicHTTPClient overrides the default HTTP client.
func WithAnthropicHTTPClient(c *http.Client) AnthropicOption {
	return func(b *AnthropicBackend) {
		b.client = c
	}
}

// NewAnthropicBackend builds a backend with the key taken from
// ANTHROPIC_API_KEY unless an option supplies one. The key is not validated
// here; a missing key surfaces on the first Generate call.
func NewAnthropicBackend(opts ...AnthropicOption) *AnthropicBackend {
	b := &AnthropicBackend{
		apiKey:     os.Getenv("ANTHROPIC_API_KEY"),
		model:      defaultAnthropicModel,
		endpoint:   defaultAnthropicURL,
		apiVersion: defaultAnthropicVersion,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (*AnthropicBackend) Name() string {
	return "anthropic"
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Model   string             `json:"model"`
	Usage   anthropicUsage     `json:"usage"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// anthropicError is the structured error envelope the API returns on
// non-200 responses.
type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a single-turn message. The API requires max_tokens, so a
// request without one gets a 512-token cap. There is no native JSON mode;
// callers wanting structured output must ask for it in the prompt.
func (b *AnthropicBackend) Generate(
	ctx context.Context,
	req GenerateRequest,
) (GenerateResponse, error) {
	if b.apiKey == "" {
		return GenerateResponse{}, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	payload := anthropicRequest{
		Model:     b.model,
		MaxTokens: maxTokens,
		System:    req.SystemMsg,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.Temperature > 0 {
		payload.Temperature = &req.Temperature
	}

	headers := map[string]string{
		"x-api-key":         b.apiKey,
		"anthropic-version": b.apiVersion,
	}
	respBody, status, err := postJSON(ctx, b.client, b.endpoint, headers, payload)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("calling anthropic API: %w", err)
	}

	if status != http.StatusOK {
		var apiErr anthropicError
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil &&
			apiErr.Error.Message != "" {
			return GenerateResponse{}, fmt.Errorf(
				"anthropic API error (status %d): %s: %s",
				status, apiErr.Error.Type, apiErr.Error.Message,
			)
		}
		return GenerateResponse{}, fmt.Errorf(
			"anthropic API error (status %d): %s", status, string(respBody),
		)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return GenerateResponse{}, fmt.Errorf("parsing anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return GenerateResponse{}, fmt.Errorf("empty response from anthropic")
	}

	return GenerateResponse{
		Content: parsed.Content[0].Text,
		Model:   parsed.Model,
		Usage: TokenUsage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}
