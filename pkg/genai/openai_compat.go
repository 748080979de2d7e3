package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// OpenAICompatBackend speaks the chat completions dialect shared by vLLM,
// text-generation-inference, LM Studio and similar self-hosted servers. The
// Authorization header is only sent when a key is configured, since most
// local servers ignore it.
type OpenAICompatBackend struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// OpenAICompatOption configures the OpenAICompatBackend.
type OpenAICompatOption func(*OpenAICompatBackend)

// WithOpenAICompatHTTPClient overrides the default HTTP client.
func WithOpenAICompatHTTPClient(c *http.Client) OpenAICompatOption {
	return func(b *OpenAICompatBackend) {
		b.client = c
	}
}

// WithOpenAICompatAPIKey sets the bearer token for servers that require one.
func WithOpenAICompatAPIKey(key string) OpenAICompatOption {
	return func(b *OpenAICompatBackend) {
		b.apiKey = key
	}
}

// NewOpenAICompatBackend builds a backend for the server at endpoint.
// OPENAI_API_KEY seeds the bearer token when no option overrides it.
func NewOpenAICompatBackend(
	endpoint, model string,
	opts ...OpenAICompatOption,
) *OpenAICompatBackend {
	b := &OpenAICompatBackend{
		endpoint: endpoint,
		model:    model,
		apiKey:   os.Getenv("OPENAI_API_KEY"),
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (*OpenAICompatBackend) Name() string {
	return "openai_compat"
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	ResponseFmt *openAIRespFmt  `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRespFmt struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []openAIChoice `json:"choices"`
	Model   string         `json:"model"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generate posts to /v1/chat/completions. A system message, when present,
// always precedes the user turn, and FormatJSON maps to the json_object
// response format.
func (b *OpenAICompatBackend) Generate(
	ctx context.Context,
	req GenerateRequest,
) (GenerateResponse, error) {
	messages := []openAIMessage{
		{Role: "user", Content: req.Prompt},
	}
	if req.SystemMsg != "" {
		messages = append(
			[]openAIMessage{{Role: "system", Content: req.SystemMsg}},
			messages...,
		)
	}

	payload := openAIChatRequest{
		Model:     b.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		payload.Temperature = &req.Temperature
	}
	if req.Format == FormatJSON {
		payload.ResponseFmt = &openAIRespFmt{Type: "json_object"}
	}

	var headers map[string]string
	if b.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + b.apiKey}
	}

	respBody, status, err := postJSON(
		ctx, b.client, b.endpoint+"/v1/chat/completions", headers, payload,
	)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("calling openai-compatible API: %w", err)
	}
	if status != http.StatusOK {
		return GenerateResponse{}, fmt.Errorf(
			"openai-compatible API error (status %d): %s", status, string(respBody),
		)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return GenerateResponse{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, fmt.Errorf("empty response from API")
	}

	return GenerateResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage: TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}
