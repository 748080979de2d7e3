// Package search provides market price discovery abstracted behind interfaces
// for testability.
package search

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// ErrNoResults is returned when a search produced no usable prices.
var ErrNoResults = errors.New("no search results with usable prices")

// Source discovers market prices for a device.
type Source interface {
	// Observations returns used-market listings for the device as raw
	// market observations ready for aggregation.
	Observations(ctx context.Context, spec domain.DeviceSpec) ([]domain.MarketObservation, error)

	// NewPrice returns the current new-unit retail price for the device.
	// Returns ErrNoResults when no listing carries a usable price.
	NewPrice(ctx context.Context, spec domain.DeviceSpec) (decimal.Decimal, error)
}
