package cmd

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hossamelshenawy/device-valuator/internal/config"
	"github.com/hossamelshenawy/device-valuator/internal/engine"
	"github.com/hossamelshenawy/device-valuator/internal/rates"
	"github.com/hossamelshenawy/device-valuator/internal/search"
	"github.com/hossamelshenawy/device-valuator/internal/store"
	"github.com/hossamelshenawy/device-valuator/internal/vision"
	"github.com/hossamelshenawy/device-valuator/pkg/condition"
	"github.com/hossamelshenawy/device-valuator/pkg/genai"
	"github.com/hossamelshenawy/device-valuator/pkg/logger"
	"github.com/hossamelshenawy/device-valuator/pkg/market"
	"github.com/hossamelshenawy/device-valuator/pkg/report"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
	"github.com/hossamelshenawy/device-valuator/pkg/valuation"
)

// buildRates constructs the static conversion table from config.
func buildRates(cfg config.RatesConfig) *rates.Table {
	table := make(map[string]decimal.Decimal, len(cfg.Table))
	for code, rate := range cfg.Table {
		table[code] = decimal.NewFromFloat(rate)
	}
	return rates.NewTable(cfg.Base, table)
}

// buildSource constructs the market search client, or nil when no API key
// is configured.
func buildSource(cfg config.SearchConfig, log *slog.Logger) search.Source {
	if cfg.APIKey == "" {
		return nil
	}

	opts := []search.SerpOption{
		search.WithSerpLogger(logger.ForComponent(log, "search")),
		search.WithSerpLimiter(search.NewLimiter(
			cfg.RateLimit.PerSecond,
			cfg.RateLimit.Burst,
			cfg.RateLimit.DailyLimit,
		)),
	}
	if cfg.URL != "" {
		opts = append(opts, search.WithSerpURL(cfg.URL))
	}
	if cfg.Location != "" {
		opts = append(opts, search.WithLocation(cfg.Location))
	}
	if cfg.Currency != "" {
		opts = append(opts, search.WithCurrency(cfg.Currency))
	}
	if len(cfg.Sites) > 0 {
		opts = append(opts, search.WithSites(cfg.Sites))
	}
	return search.NewSerpClient(cfg.APIKey, opts...)
}

// buildVision constructs the photo analysis client, or nil when disabled.
func buildVision(cfg config.VisionConfig, log *slog.Logger) vision.SignalProvider {
	if !cfg.Enabled {
		return nil
	}

	opts := []vision.GeminiOption{
		vision.WithGeminiLogger(logger.ForComponent(log, "vision")),
	}
	if cfg.URL != "" {
		opts = append(opts, vision.WithGeminiURL(cfg.URL))
	}
	if cfg.Model != "" {
		opts = append(opts, vision.WithGeminiModel(cfg.Model))
	}
	return vision.NewGeminiClient(opts...)
}

// buildBackend constructs the text generation backend named in config.
func buildBackend(cfg config.LLMConfig) genai.Backend {
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Backend {
	case "anthropic":
		opts := []genai.AnthropicOption{genai.WithAnthropicHTTPClient(client)}
		if cfg.Anthropic.Model != "" {
			opts = append(opts, genai.WithAnthropicModel(cfg.Anthropic.Model))
		}
		return genai.NewAnthropicBackend(opts...)
	case "openai_compat":
		return genai.NewOpenAICompatBackend(
			cfg.OpenAICompat.Endpoint,
			cfg.OpenAICompat.Model,
			genai.WithOpenAICompatHTTPClient(client),
		)
	default:
		return genai.NewOllamaBackend(
			cfg.Ollama.Endpoint,
			cfg.Ollama.Model,
			genai.WithOllamaHTTPClient(client),
		)
	}
}

// buildEngine assembles the valuation engine from config. The store may be
// nil for offline use; the fallback path is then unavailable.
func buildEngine(cfg *config.Config, st store.Store, log *slog.Logger) *engine.Engine {
	backend := buildBackend(cfg.LLM)
	extractor := genai.NewLLMSpecExtractor(backend)
	composer := report.NewComposer(report.NewLLMRenderer(
		backend,
		report.WithRendererLogger(logger.ForComponent(log, "report")),
	))

	return engine.NewEngine(
		st,
		buildSource(cfg.Search, log),
		buildVision(cfg.Vision, log),
		extractor,
		composer,
		buildRates(cfg.Rates),
		engine.WithLogger(logger.ForComponent(log, "engine")),
		engine.WithPenalties(buildPenalties(cfg.Valuation.Penalties)),
		engine.WithMarketConfig(market.Config{
			MinSamples:     cfg.Valuation.MinSamples,
			LowPercentile:  cfg.Valuation.LowPercentile,
			HighPercentile: cfg.Valuation.HighPercentile,
			DedupWindow:    cfg.Valuation.DedupWindow,
		}),
		engine.WithValuationConfig(valuation.Config{
			Multipliers:           buildMultipliers(cfg.Valuation.Multipliers),
			LowClampFactor:        decimal.NewFromFloat(cfg.Valuation.LowClampFactor),
			HighConfidenceSamples: cfg.Valuation.HighConfidenceSamples,
		}),
		engine.WithFallbackDiscount(decimal.NewFromFloat(cfg.Valuation.FallbackDiscount)),
		engine.WithReferenceTTL(cfg.Valuation.ReferenceTTL),
		engine.WithDefaultCurrency(cfg.Search.Currency),
	)
}

func buildPenalties(m map[string]float64) condition.Penalties {
	if len(m) == 0 {
		return condition.DefaultPenalties()
	}
	p := make(condition.Penalties, len(m))
	for issue, penalty := range m {
		p[domain.IssueType(issue)] = penalty
	}
	return p
}

func buildMultipliers(m map[string]float64) map[domain.Grade]decimal.Decimal {
	if len(m) == 0 {
		return valuation.DefaultConfig().Multipliers
	}
	out := make(map[domain.Grade]decimal.Decimal, len(m))
	for grade, mult := range m {
		out[domain.Grade(grade)] = decimal.NewFromFloat(mult)
	}
	return out
}
