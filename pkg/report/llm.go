package report

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hossamelshenawy/device-valuator/internal/metrics"
	"github.com/hossamelshenawy/device-valuator/pkg/genai"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

var languageNames = map[domain.Language]string{
	domain.LanguageEnglish: "English",
	domain.LanguageArabic:  "Arabic",
}

// LLMRenderer renders report prose through a genai backend. On any backend
// or parsing failure it falls back to the deterministic template renderer,
// so a report is always produced.
type LLMRenderer struct {
	backend  genai.Backend
	fallback *TemplateRenderer
	log      *slog.Logger
}

// LLMRendererOption configures the LLMRenderer.
type LLMRendererOption func(*LLMRenderer)

// WithRendererLogger sets a custom logger.
func WithRendererLogger(l *slog.Logger) LLMRendererOption {
	return func(r *LLMRenderer) {
		r.log = l
	}
}

// NewLLMRenderer creates an LLMRenderer backed by the given backend.
func NewLLMRenderer(backend genai.Backend, opts ...LLMRendererOption) *LLMRenderer {
	r := &LLMRenderer{
		backend:  backend,
		fallback: NewTemplateRenderer(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type renderedReport struct {
	Summary      string   `json:"summary"`
	Explanations []string `json:"explanations"`
}

// Render asks the backend for prose covering exactly the given facts.
func (r *LLMRenderer) Render(
	ctx context.Context,
	result domain.ValuationResult,
	facts []Fact,
	lang domain.Language,
) (string, []string, error) {
	factLines := make([]string, 0, len(facts))
	for _, f := range facts {
		factLines = append(factLines, string(f.Kind)+": "+f.Effect)
	}

	prompt, err := genai.RenderReportPrompt(
		languageNames[lang],
		deviceName(result.Spec),
		result.RecommendedPrice.String(),
		result.Currency,
		factLines,
	)
	if err != nil {
		return r.fallbackRender(ctx, result, facts, lang, err)
	}

	resp, err := r.backend.Generate(ctx, genai.GenerateRequest{
		Prompt:      prompt,
		Format:      genai.FormatJSON,
		Temperature: 0.4,
		MaxTokens:   1024,
	})
	if err != nil {
		return r.fallbackRender(ctx, result, facts, lang, err)
	}

	var parsed renderedReport
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return r.fallbackRender(ctx, result, facts, lang, err)
	}
	if parsed.Summary == "" || len(parsed.Explanations) != len(facts) {
		r.log.Warn("llm report shape mismatch, using template renderer",
			"backend", r.backend.Name(),
			"explanations", len(parsed.Explanations),
			"facts", len(facts),
		)
		metrics.ReportRenderFallbacksTotal.Inc()
		return r.fallback.Render(ctx, result, facts, lang)
	}

	return parsed.Summary, parsed.Explanations, nil
}

func (r *LLMRenderer) fallbackRender(
	ctx context.Context,
	result domain.ValuationResult,
	facts []Fact,
	lang domain.Language,
	cause error,
) (string, []string, error) {
	r.log.Warn("llm report generation failed, using template renderer",
		"backend", r.backend.Name(),
		"error", cause,
	)
	metrics.ReportRenderFallbacksTotal.Inc()
	return r.fallback.Render(ctx, result, facts, lang)
}
