// Package valuation combines a market price band, a condition assessment,
// and device specs into a final recommended price with a confidence level.
package valuation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// FallbackPricer produces a spec-based heuristic price when the market band
// carries insufficient data. It is an injected collaborator; the calculator
// itself never reaches the network.
type FallbackPricer interface {
	FallbackPrice(
		ctx context.Context,
		spec domain.DeviceSpec,
		grade domain.Grade,
		currency string,
	) (decimal.Decimal, error)
}

// Config holds the valuation parameters.
type Config struct {
	// Multipliers scale the band median by condition grade. Monotone by
	// construction of the defaults; treated as tunable configuration.
	Multipliers map[domain.Grade]decimal.Decimal
	// LowClampFactor bounds the result from below at band.Low times this
	// factor; the upper bound is band.High.
	LowClampFactor decimal.Decimal
	// HighConfidenceSamples is the minimum sample size for high confidence.
	HighConfidenceSamples int
}

// DefaultConfig returns the default valuation parameters.
func DefaultConfig() Config {
	return Config{
		Multipliers: map[domain.Grade]decimal.Decimal{
			domain.GradeExcellent: decimal.NewFromFloat(1.00),
			domain.GradeGood:      decimal.NewFromFloat(0.85),
			domain.GradeFair:      decimal.NewFromFloat(0.65),
			domain.GradePoor:      decimal.NewFromFloat(0.40),
			domain.GradeDamaged:   decimal.NewFromFloat(0.15),
		},
		LowClampFactor:        decimal.NewFromFloat(0.5),
		HighConfidenceSamples: 8,
	}
}

// Valuate produces the recommended price for a device. With a usable band
// the price is median times the grade multiplier, clamped to
// [low x LowClampFactor, high]. With the insufficient-data sentinel the
// price comes from the fallback collaborator and confidence is low.
//
// Identical inputs always produce identical results; this calculator is the
// deterministic anchor downstream of the non-deterministic collaborators.
func Valuate(
	ctx context.Context,
	band domain.PriceBand,
	assessment domain.ConditionAssessment,
	spec domain.DeviceSpec,
	fallback FallbackPricer,
	cfg Config,
) (domain.ValuationResult, error) {
	result := domain.ValuationResult{
		Currency:   band.Currency,
		Band:       band,
		Assessment: assessment,
		Spec:       spec,
	}

	if band.Insufficient() {
		if fallback == nil {
			return domain.ValuationResult{}, fmt.Errorf(
				"insufficient market data for %s %s and no fallback pricer",
				spec.Brand, spec.Model,
			)
		}
		price, err := fallback.FallbackPrice(ctx, spec, assessment.Grade, band.Currency)
		if err != nil {
			return domain.ValuationResult{}, fmt.Errorf("fallback pricing: %w", err)
		}
		result.RecommendedPrice = price
		result.Confidence = domain.ConfidenceLow
		return result, nil
	}

	mult, ok := cfg.Multipliers[assessment.Grade]
	if !ok {
		return domain.ValuationResult{}, fmt.Errorf(
			"no condition multiplier configured for grade %q", assessment.Grade,
		)
	}

	price := band.Median.Mul(mult)

	// Clamp against pathological combinations of extreme multipliers and
	// thin bands.
	floor := band.Low.Mul(cfg.LowClampFactor)
	if price.LessThan(floor) {
		price = floor
	}
	if price.GreaterThan(band.High) {
		price = band.High
	}

	result.RecommendedPrice = price
	result.Confidence = confidence(band.SampleSize, len(assessment.Signals), cfg)
	return result, nil
}

func confidence(sampleSize, signalCount int, cfg Config) domain.Confidence {
	if sampleSize >= cfg.HighConfidenceSamples && signalCount > 0 {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}
