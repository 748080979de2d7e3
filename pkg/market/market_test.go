package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// staticRates is a fixed in-test rate table.
type staticRates map[string]float64

func (r staticRates) Rate(from, _ string) (decimal.Decimal, bool) {
	v, ok := r[from]
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(v), true
}

func obsAt(price float64, currency, source string, ts time.Time) domain.MarketObservation {
	return domain.MarketObservation{
		Price:     decimal.NewFromFloat(price),
		Currency:  currency,
		Source:    source,
		Timestamp: ts,
	}
}

func TestAggregate_MedianAndBand(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var obs []domain.MarketObservation
	for i, p := range []float64{90, 95, 100, 105, 110, 1000} {
		obs = append(obs, obsAt(p, "USD", "store", now.Add(time.Duration(i)*time.Hour)))
	}

	band := Aggregate(obs, "USD", nil, DefaultConfig())

	require.Equal(t, 6, band.SampleSize)
	// Valid prices are kept even when they look like outliers.
	assert.Equal(t, "102.5", band.Median.String())
	assert.Equal(t, "90", band.Low.String())
	assert.Equal(t, "1000", band.High.String())
	assert.Equal(t, "USD", band.Currency)
	assert.True(t, band.Low.LessThanOrEqual(band.Median))
	assert.True(t, band.Median.LessThanOrEqual(band.High))
}

func TestAggregate_NearestRankPercentiles(t *testing.T) {
	t.Parallel()

	now := time.Now()
	var obs []domain.MarketObservation
	for i := 1; i <= 10; i++ {
		obs = append(obs, obsAt(float64(i*10), "USD", "s", now.Add(time.Duration(i)*time.Hour)))
	}

	band := Aggregate(obs, "USD", nil, DefaultConfig())

	// n=10: rank(P10)=1, rank(P90)=9, values 10..100.
	assert.Equal(t, "10", band.Low.String())
	assert.Equal(t, "90", band.High.String())
	assert.Equal(t, "55", band.Median.String())
}

func TestAggregate_FiltersInvalidSilently(t *testing.T) {
	t.Parallel()

	now := time.Now()
	obs := []domain.MarketObservation{
		obsAt(0, "USD", "a", now),
		obsAt(-50, "USD", "b", now),
		obsAt(100, "XON", "c", now), // no rate known
		obsAt(100, "USD", "d", now),
		obsAt(110, "usd", "e", now), // currency codes compare case-insensitively
		obsAt(120, "USD", "f", now),
	}

	band := Aggregate(obs, "USD", staticRates{}, DefaultConfig())
	assert.Equal(t, 3, band.SampleSize)
	assert.Equal(t, "110", band.Median.String())
}

func TestAggregate_CurrencyConversion(t *testing.T) {
	t.Parallel()

	now := time.Now()
	obs := []domain.MarketObservation{
		obsAt(100, "USD", "a", now),
		obsAt(5000, "EGP", "b", now.Add(time.Hour)),
		obsAt(90, "EUR", "c", now.Add(2*time.Hour)),
	}

	rates := staticRates{"USD": 50, "EUR": 55}
	band := Aggregate(obs, "EGP", rates, DefaultConfig())

	require.Equal(t, 3, band.SampleSize)
	// Converted: 5000, 5000, 4950.
	assert.Equal(t, "5000", band.Median.String())
	assert.Equal(t, "EGP", band.Currency)
}

func TestAggregate_InsufficientData(t *testing.T) {
	t.Parallel()

	now := time.Now()
	obs := []domain.MarketObservation{
		obsAt(100, "USD", "a", now),
		obsAt(110, "USD", "b", now),
	}

	band := Aggregate(obs, "USD", nil, DefaultConfig())
	assert.True(t, band.Insufficient())
	assert.Equal(t, 0, band.SampleSize)
	assert.Equal(t, "USD", band.Currency)
}

func TestAggregate_IdempotentUnderDuplicates(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	base := []domain.MarketObservation{
		obsAt(100, "USD", "alpha", now),
		obsAt(120, "USD", "beta", now),
		obsAt(140, "USD", "gamma", now),
		obsAt(160, "USD", "delta", now),
	}

	// Repeated scrapes: same source and price, seconds apart.
	withDups := append(append([]domain.MarketObservation{}, base...),
		obsAt(100, "USD", "alpha", now.Add(30*time.Second)),
		obsAt(120, "USD", "beta", now),
	)

	a := Aggregate(base, "USD", nil, DefaultConfig())
	b := Aggregate(withDups, "USD", nil, DefaultConfig())
	assert.Equal(t, a, b)
}

func TestAggregate_SamePriceDifferentSourcesKept(t *testing.T) {
	t.Parallel()

	now := time.Now()
	obs := []domain.MarketObservation{
		obsAt(100, "USD", "alpha", now),
		obsAt(100, "USD", "beta", now),
		obsAt(100, "USD", "gamma", now),
	}

	band := Aggregate(obs, "USD", nil, DefaultConfig())
	assert.Equal(t, 3, band.SampleSize,
		"equal prices from distinct sources are real observations")
}

func TestAggregate_DedupRespectsWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	obs := []domain.MarketObservation{
		obsAt(100, "USD", "alpha", now),
		obsAt(100, "USD", "alpha", now.Add(time.Hour)), // outside window: a fresh listing
		obsAt(120, "USD", "beta", now),
	}

	band := Aggregate(obs, "USD", nil, DefaultConfig())
	assert.Equal(t, 3, band.SampleSize)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	now := time.Now()
	obs := []domain.MarketObservation{
		obsAt(300, "USD", "a", now),
		obsAt(100, "USD", "b", now),
		obsAt(200, "USD", "c", now),
	}

	Aggregate(obs, "USD", nil, DefaultConfig())
	assert.Equal(t, "300", obs[0].Price.String(), "input order must be preserved")
}
