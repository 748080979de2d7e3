// Package engine orchestrates a valuation request end to end: condition
// normalization, market aggregation, price calculation, and report
// composition, with the external collaborators injected behind interfaces.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hossamelshenawy/device-valuator/internal/metrics"
	"github.com/hossamelshenawy/device-valuator/internal/search"
	"github.com/hossamelshenawy/device-valuator/internal/store"
	"github.com/hossamelshenawy/device-valuator/internal/vision"
	"github.com/hossamelshenawy/device-valuator/pkg/condition"
	"github.com/hossamelshenawy/device-valuator/pkg/genai"
	"github.com/hossamelshenawy/device-valuator/pkg/market"
	"github.com/hossamelshenawy/device-valuator/pkg/report"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
	"github.com/hossamelshenawy/device-valuator/pkg/valuation"
)

// ErrNoDevice is returned when a request carries neither a device spec nor
// a product name to extract one from.
var ErrNoDevice = errors.New("no device spec or product name provided")

// Request is a single valuation request.
type Request struct {
	// Product is the free-text device name, used for spec extraction and
	// market search when Spec is nil.
	Product string
	// Spec, when set, skips spec extraction.
	Spec *domain.DeviceSpec

	// Signals are explicit condition signals. Merged with any signals
	// derived from Images.
	Signals []domain.ConditionSignal
	// Images are device photos analyzed by the vision collaborator.
	Images []vision.Image

	// Observations are caller-supplied market observations. When empty
	// the search collaborator supplies them.
	Observations []domain.MarketObservation

	// Currency is the target currency; defaults to the engine's.
	Currency string
	// Language of the justification report; defaults to English.
	Language domain.Language
}

// Result bundles the priced outcome with its justification.
type Result struct {
	Valuation domain.ValuationResult     `json:"valuation"`
	Report    domain.JustificationReport `json:"report"`
}

// Engine runs valuation requests against injected collaborators. Any of
// the collaborators may be nil; the corresponding capability is skipped
// and requests that need it fail with a descriptive error.
type Engine struct {
	store     store.Store
	source    search.Source
	vision    vision.SignalProvider
	extractor genai.SpecExtractor
	composer  *report.Composer
	rates     market.RateProvider
	log       *slog.Logger

	penalties        condition.Penalties
	marketCfg        market.Config
	valuationCfg     valuation.Config
	fallbackDiscount decimal.Decimal
	referenceTTL     time.Duration
	currency         string
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	src search.Source,
	vp vision.SignalProvider,
	ex genai.SpecExtractor,
	comp *report.Composer,
	rates market.RateProvider,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:            s,
		source:           src,
		vision:           vp,
		extractor:        ex,
		composer:         comp,
		rates:            rates,
		log:              slog.Default(),
		penalties:        condition.DefaultPenalties(),
		marketCfg:        market.DefaultConfig(),
		valuationCfg:     valuation.DefaultConfig(),
		fallbackDiscount: decimal.NewFromFloat(0.70),
		referenceTTL:     24 * time.Hour,
		currency:         "EGP",
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.composer == nil {
		eng.composer = report.NewComposer(nil)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithPenalties sets the condition penalty table.
func WithPenalties(p condition.Penalties) EngineOption {
	return func(e *Engine) {
		e.penalties = p
	}
}

// WithMarketConfig sets the aggregation parameters.
func WithMarketConfig(cfg market.Config) EngineOption {
	return func(e *Engine) {
		e.marketCfg = cfg
	}
}

// WithValuationConfig sets the pricing parameters.
func WithValuationConfig(cfg valuation.Config) EngineOption {
	return func(e *Engine) {
		e.valuationCfg = cfg
	}
}

// WithFallbackDiscount sets the used-market discount applied to new-unit
// reference prices on the fallback path.
func WithFallbackDiscount(d decimal.Decimal) EngineOption {
	return func(e *Engine) {
		e.fallbackDiscount = d
	}
}

// WithReferenceTTL sets how long cached reference prices stay usable.
func WithReferenceTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.referenceTTL = ttl
	}
}

// WithDefaultCurrency sets the currency used when requests omit one.
func WithDefaultCurrency(code string) EngineOption {
	return func(e *Engine) {
		e.currency = code
	}
}

// Valuate runs one valuation request end to end.
func (eng *Engine) Valuate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.ValuationDuration.Observe(time.Since(start).Seconds())
	}()

	spec, err := eng.resolveSpec(ctx, req)
	if err != nil {
		return nil, err
	}

	signals, err := eng.resolveSignals(ctx, req)
	if err != nil {
		return nil, err
	}

	assessment, err := condition.Normalize(signals, eng.penalties)
	if err != nil {
		return nil, fmt.Errorf("normalizing condition: %w", err)
	}
	metrics.ConditionScoreDistribution.Observe(assessment.Score)

	currency := req.Currency
	if currency == "" {
		currency = eng.currency
	}

	obs := req.Observations
	if len(obs) == 0 && eng.source != nil {
		obs, err = eng.source.Observations(ctx, spec)
		if err != nil {
			// A failed search is not fatal; the band sentinel routes the
			// request down the fallback path.
			eng.log.Warn("market search failed", "device", spec.Model, "error", err)
			obs = nil
		}
	}

	band := market.Aggregate(obs, currency, eng.rates, eng.marketCfg)
	metrics.BandSampleSize.Observe(float64(band.SampleSize))
	// The sentinel band hides the cleaned count, so drops are only
	// attributable on the market path.
	if dropped := len(obs) - band.SampleSize; !band.Insufficient() && dropped > 0 {
		metrics.ObservationsFilteredTotal.Add(float64(dropped))
	}

	result, err := valuation.Valuate(ctx, band, assessment, spec, eng, eng.valuationCfg)
	if err != nil {
		return nil, fmt.Errorf("valuating device: %w", err)
	}
	metrics.ValuationsTotal.WithLabelValues(string(result.Confidence)).Inc()
	if band.Insufficient() {
		metrics.ValuationFallbacksTotal.Inc()
	}

	lang := req.Language
	if lang == "" {
		lang = domain.LanguageEnglish
	}

	rep, err := eng.composer.Compose(ctx, result, lang)
	if err != nil {
		return nil, fmt.Errorf("composing report: %w", err)
	}

	eng.log.Info("valuation complete",
		"device", spec.Model,
		"price", result.RecommendedPrice,
		"currency", result.Currency,
		"confidence", result.Confidence,
		"samples", band.SampleSize,
	)

	return &Result{Valuation: result, Report: rep}, nil
}

func (eng *Engine) resolveSpec(ctx context.Context, req Request) (domain.DeviceSpec, error) {
	if req.Spec != nil {
		return *req.Spec, nil
	}
	if req.Product == "" || eng.extractor == nil {
		return domain.DeviceSpec{}, ErrNoDevice
	}

	extractStart := time.Now()
	spec, err := eng.extractor.ExtractSpec(ctx, req.Product, nil)
	metrics.ExtractionDuration.Observe(time.Since(extractStart).Seconds())
	if err != nil {
		return domain.DeviceSpec{}, fmt.Errorf("extracting device spec: %w", err)
	}
	if err := genai.ValidateSpec(spec); err != nil {
		return domain.DeviceSpec{}, fmt.Errorf("validating device spec: %w", err)
	}
	return spec, nil
}

func (eng *Engine) resolveSignals(ctx context.Context, req Request) ([]domain.ConditionSignal, error) {
	signals := req.Signals
	if len(req.Images) == 0 || eng.vision == nil {
		return signals, nil
	}

	detected, err := eng.vision.Signals(ctx, req.Images)
	if err != nil {
		return nil, fmt.Errorf("analyzing photos: %w", err)
	}

	merged := make([]domain.ConditionSignal, 0, len(signals)+len(detected))
	merged = append(merged, signals...)
	merged = append(merged, detected...)
	return merged, nil
}
