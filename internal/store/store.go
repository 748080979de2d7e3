// Package store defines the datastore abstraction for the device valuator.
// Business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running
// database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// ErrNotFound is returned when no usable row matches a lookup.
var ErrNotFound = errors.New("not found")

// Store defines all data access operations for the device valuator.
type Store interface {
	// Reference prices
	//
	// GetReferencePrice returns the cached new-unit price for a device
	// model in the given currency. Rows fetched longer than maxAge ago
	// are treated as absent. Returns ErrNotFound when no fresh row
	// exists.
	GetReferencePrice(ctx context.Context, brand, model, currency string, maxAge time.Duration) (*domain.ReferencePrice, error)
	// SaveReferencePrice inserts or refreshes the cached price for a
	// (brand, model, currency) key.
	SaveReferencePrice(ctx context.Context, p *domain.ReferencePrice) error
	// PruneReferencePrices deletes rows fetched longer than olderThan
	// ago and returns the number removed.
	PruneReferencePrices(ctx context.Context, olderThan time.Duration) (int, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
