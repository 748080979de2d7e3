package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hossamelshenawy/device-valuator/internal/metrics"
	"github.com/hossamelshenawy/device-valuator/internal/store"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// ErrNoReferencePrice is returned when neither the cache nor the search
// collaborator can produce a new-unit price for the fallback heuristic.
var ErrNoReferencePrice = errors.New("no reference price available for fallback")

// FallbackPrice prices a device with insufficient market data: new-unit
// reference price times the grade multiplier times the used-market
// discount. The reference price comes from the cache when fresh, otherwise
// from a live new-price search whose result is cached for next time.
func (eng *Engine) FallbackPrice(
	ctx context.Context,
	spec domain.DeviceSpec,
	grade domain.Grade,
	currency string,
) (decimal.Decimal, error) {
	newPrice, err := eng.referencePrice(ctx, spec, currency)
	if err != nil {
		return decimal.Zero, err
	}

	multiplier, ok := eng.valuationCfg.Multipliers[grade]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price multiplier for grade %q", grade)
	}

	return newPrice.Mul(multiplier).Mul(eng.fallbackDiscount), nil
}

func (eng *Engine) referencePrice(
	ctx context.Context,
	spec domain.DeviceSpec,
	currency string,
) (decimal.Decimal, error) {
	if eng.store != nil {
		ref, err := eng.store.GetReferencePrice(ctx, spec.Brand, spec.Model, currency, eng.referenceTTL)
		if err == nil {
			metrics.ReferenceCacheHitsTotal.WithLabelValues("hit").Inc()
			return ref.Price, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			eng.log.Warn("reference price lookup failed",
				"brand", spec.Brand, "model", spec.Model, "error", err)
		}
		metrics.ReferenceCacheHitsTotal.WithLabelValues("miss").Inc()
	}

	if eng.source == nil {
		return decimal.Zero, ErrNoReferencePrice
	}

	price, err := eng.source.NewPrice(ctx, spec)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrNoReferencePrice, err)
	}

	// The search collaborator reports prices in the engine currency. A
	// price that cannot be converted must not be returned or cached under
	// the target currency's label.
	if currency != "" && currency != eng.currency {
		if eng.rates == nil {
			return decimal.Zero, fmt.Errorf(
				"%w: no conversion rate from %s to %s",
				ErrNoReferencePrice, eng.currency, currency,
			)
		}
		rate, ok := eng.rates.Rate(eng.currency, currency)
		if !ok {
			return decimal.Zero, fmt.Errorf(
				"%w: no conversion rate from %s to %s",
				ErrNoReferencePrice, eng.currency, currency,
			)
		}
		price = price.Mul(rate)
	}

	if eng.store != nil {
		ref := &domain.ReferencePrice{
			Brand:    spec.Brand,
			Model:    spec.Model,
			Price:    price,
			Currency: currency,
			Source:   "search",
		}
		if err := eng.store.SaveReferencePrice(ctx, ref); err != nil {
			eng.log.Warn("caching reference price failed",
				"brand", spec.Brand, "model", spec.Model, "error", err)
		}
	}

	return price, nil
}
