package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OllamaBackend talks to a local Ollama daemon over /api/generate.
// Streaming is always disabled; the full completion comes back in one body.
type OllamaBackend struct {
	endpoint string
	model    string
	client   *http.Client
}

// OllamaOption configures the OllamaBackend.
type OllamaOption func(*OllamaBackend)

// WithOllamaHTTPClient overrides the default HTTP client.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(b *OllamaBackend) {
		b.client = c
	}
}

// NewOllamaBackend returns a backend for the daemon at endpoint running the
// given model tag.
func NewOllamaBackend(endpoint, model string, opts ...OllamaOption) *OllamaBackend {
	b := &OllamaBackend{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (*OllamaBackend) Name() string {
	return "ollama"
}

type ollamaRequest struct {
	Model      string         `json:"model"`
	Prompt     string         `json:"prompt"`
	System     string         `json:"system,omitempty"`
	Format     string         `json:"format,omitempty"`
	Stream     bool           `json:"stream"`
	Options    *ollamaOptions `json:"options,omitempty"`
	NumPredict int            `json:"num_predict,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Generate runs a single non-streaming completion. Ollama does not report
// token usage on this endpoint, so Usage is left zero.
func (b *OllamaBackend) Generate(
	ctx context.Context,
	req GenerateRequest,
) (GenerateResponse, error) {
	payload := ollamaRequest{
		Model:      b.model,
		Prompt:     req.Prompt,
		System:     req.SystemMsg,
		Stream:     false,
		NumPredict: req.MaxTokens,
	}
	if req.Format == FormatJSON {
		payload.Format = FormatJSON
	}
	if req.Temperature > 0 {
		payload.Options = &ollamaOptions{Temperature: req.Temperature}
	}

	respBody, status, err := postJSON(
		ctx, b.client, b.endpoint+"/api/generate", nil, payload,
	)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("calling ollama: %w", err)
	}
	if status != http.StatusOK {
		return GenerateResponse{}, fmt.Errorf(
			"ollama error (status %d): %s", status, string(respBody),
		)
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return GenerateResponse{}, fmt.Errorf("parsing ollama response: %w", err)
	}

	return GenerateResponse{
		Content: parsed.Response,
		Model:   parsed.Model,
	}, nil
}
