// Package genai provides the language-model collaborator used for device
// spec extraction and report prose generation, abstracted behind interfaces
// so the core valuation logic never depends on a network call.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// FormatJSON is the format string for requesting JSON mode from backends.
const FormatJSON = "json"

// GenerateRequest defines the input for a generation call.
type GenerateRequest struct {
	Prompt      string
	SystemMsg   string
	Format      string // FormatJSON for JSON mode
	Temperature float64
	MaxTokens   int
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerateResponse holds the result of a generation call.
type GenerateResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// Backend defines the interface for LLM text generation.
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// postJSON sends payload as a JSON POST and returns the raw response body
// and status code. Transport and encoding failures come back as errors;
// non-2xx statuses do not, since each backend reports those in its own
// error shape.
func postJSON(
	ctx context.Context,
	client *http.Client,
	url string,
	headers map[string]string,
	payload any,
) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
