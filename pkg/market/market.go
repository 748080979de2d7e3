// Package market cleans and statistically summarizes raw price observations
// for a device model into a robust reference price band.
package market

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// RateProvider converts between currencies. Missing rates are reported via
// ok=false and cause the observation to be dropped, never a failure.
type RateProvider interface {
	Rate(from, to string) (decimal.Decimal, bool)
}

// Config holds the aggregation parameters.
type Config struct {
	// MinSamples is the minimum number of cleaned observations required
	// to produce a band instead of the insufficient-data sentinel.
	MinSamples int
	// LowPercentile and HighPercentile bound the band (nearest-rank).
	LowPercentile  int
	HighPercentile int
	// DedupWindow is the timestamp tolerance within which two observations
	// from the same source at the same price count as one.
	DedupWindow time.Duration
}

// DefaultConfig returns the default aggregation parameters.
func DefaultConfig() Config {
	return Config{
		MinSamples:     3,
		LowPercentile:  10,
		HighPercentile: 90,
		DedupWindow:    5 * time.Minute,
	}
}

// Aggregate cleans the observations and summarizes them into a PriceBand in
// the target currency. Malformed observations (non-positive price, currency
// with no known rate) are filtered silently. If fewer than cfg.MinSamples
// observations survive cleaning, the insufficient-data sentinel is returned.
//
// Pure function over its inputs; aggregating a list with exact duplicates
// appended yields the same band as the original list.
func Aggregate(
	obs []domain.MarketObservation,
	target string,
	rates RateProvider,
	cfg Config,
) domain.PriceBand {
	cleaned := clean(obs, target, rates, cfg.DedupWindow)
	if len(cleaned) < cfg.MinSamples {
		return domain.InsufficientBand(target)
	}

	sort.Slice(cleaned, func(i, j int) bool {
		return cleaned[i].LessThan(cleaned[j])
	})

	return domain.PriceBand{
		Low:        nearestRank(cleaned, cfg.LowPercentile),
		Median:     median(cleaned),
		High:       nearestRank(cleaned, cfg.HighPercentile),
		SampleSize: len(cleaned),
		Currency:   target,
	}
}

// clean filters invalid observations, converts prices to the target
// currency, and drops duplicate scrapes.
func clean(
	obs []domain.MarketObservation,
	target string,
	rates RateProvider,
	window time.Duration,
) []decimal.Decimal {
	type seenObs struct {
		source string
		price  decimal.Decimal
		at     time.Time
	}

	var kept []seenObs
	prices := make([]decimal.Decimal, 0, len(obs))

	for _, o := range obs {
		if !o.Price.IsPositive() {
			continue
		}

		rate, ok := conversionRate(o.Currency, target, rates)
		if !ok {
			continue
		}

		dup := false
		for _, s := range kept {
			if s.source == o.Source &&
				s.price.Equal(o.Price) &&
				absDuration(s.at.Sub(o.Timestamp)) <= window {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		kept = append(kept, seenObs{source: o.Source, price: o.Price, at: o.Timestamp})
		prices = append(prices, o.Price.Mul(rate))
	}

	return prices
}

func conversionRate(from, to string, rates RateProvider) (decimal.Decimal, bool) {
	if strings.EqualFold(from, to) {
		return decimal.NewFromInt(1), true
	}
	if rates == nil {
		return decimal.Decimal{}, false
	}
	return rates.Rate(from, to)
}

// nearestRank returns the p-th percentile of sorted prices using the
// nearest-rank method (no interpolation, reproducible).
func nearestRank(sorted []decimal.Decimal, p int) decimal.Decimal {
	n := len(sorted)
	rank := (p*n + 99) / 100 // ceil(p/100 * n)
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

// median returns the middle value, averaging the two central values for an
// even-sized sample.
func median(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
