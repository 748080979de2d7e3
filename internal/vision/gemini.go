package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

const (
	defaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel = "gemini-1.5-flash"
)

const visionPrompt = `You are inspecting photos of a used electronic device.
The photo is labeled with the view it was taken from: %s.
List every physical issue you can see. Respond with ONLY a JSON object:
{"issues": [{"type": "scratch|crack|dent|discoloration|missing_part|functional_defect", "severity": "low|medium|high", "location": "where on the device", "description": "one sentence"}]}
If the device looks flawless, return {"issues": []}. Do not include any other text.`

// GeminiClient implements SignalProvider using the Gemini generateContent
// API.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     *slog.Logger
}

// GeminiOption configures the GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiURL overrides the default API endpoint.
func WithGeminiURL(u string) GeminiOption {
	return func(c *GeminiClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithGeminiModel overrides the default model.
func WithGeminiModel(m string) GeminiOption {
	return func(c *GeminiClient) {
		c.model = m
	}
}

// WithGeminiHTTPClient overrides the default HTTP client.
func WithGeminiHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.client = hc
	}
}

// WithGeminiAPIKey sets the API key explicitly instead of reading
// GOOGLE_API_KEY from the environment.
func WithGeminiAPIKey(key string) GeminiOption {
	return func(c *GeminiClient) {
		c.apiKey = key
	}
}

// WithGeminiLogger overrides the default logger.
func WithGeminiLogger(log *slog.Logger) GeminiOption {
	return func(c *GeminiClient) {
		c.log = log
	}
}

// NewGeminiClient creates a vision client. The API key is read from
// GOOGLE_API_KEY unless overridden.
func NewGeminiClient(opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:  os.Getenv("GOOGLE_API_KEY"),
		baseURL: defaultGeminiURL,
		model:   defaultGeminiModel,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type issuePayload struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type analysisPayload struct {
	Issues []issuePayload `json:"issues"`
}

// Signals analyzes each photo in turn and merges the detected issues into
// a single signal list. Issues the model reports with an unrecognized type
// or severity are dropped with a warning rather than failing the analysis.
func (c *GeminiClient) Signals(ctx context.Context, images []Image) ([]domain.ConditionSignal, error) {
	var signals []domain.ConditionSignal

	for _, img := range images {
		issues, err := c.analyzeView(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("analyzing %s view: %w", img.View, err)
		}

		for _, issue := range issues {
			kind, ok := issueAliases[strings.ToLower(strings.TrimSpace(issue.Type))]
			if !ok {
				c.log.Warn("dropping issue with unknown type",
					"type", issue.Type, "view", img.View)
				continue
			}
			weight, ok := severityWeights[strings.ToLower(strings.TrimSpace(issue.Severity))]
			if !ok {
				c.log.Warn("dropping issue with unknown severity",
					"severity", issue.Severity, "view", img.View)
				continue
			}
			location := issue.Location
			if img.View != "" {
				location = img.View + ": " + issue.Location
			}
			signals = append(signals, domain.ConditionSignal{
				Issue:    kind,
				Severity: weight,
				Location: location,
			})
		}
	}

	return signals, nil
}

func (c *GeminiClient) analyzeView(ctx context.Context, img Image) ([]issuePayload, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: fmt.Sprintf(visionPrompt, img.View)},
				{InlineData: &geminiInlineData{
					MIMEType: img.MIME,
					Data:     base64.StdEncoding.EncodeToString(img.Data),
				}},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling vision request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing vision request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading vision response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing vision response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoCandidates
	}

	text := stripFences(parsed.Candidates[0].Content.Parts[0].Text)

	var analysis analysisPayload
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, fmt.Errorf("parsing analysis payload: %w", err)
	}

	return analysis.Issues, nil
}

// stripFences removes a markdown code fence the model sometimes wraps JSON
// output in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
