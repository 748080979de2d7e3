//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hossamelshenawy/device-valuator/internal/store"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("valuator_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func testReferencePrice() *domain.ReferencePrice {
	return &domain.ReferencePrice{
		Brand:    "Samsung",
		Model:    "Galaxy S21",
		Price:    decimal.NewFromInt(18500),
		Currency: "EGP",
		Source:   "Jumia Egypt",
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_SaveReferencePrice(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	t.Run("insert new price", func(t *testing.T) {
		p := testReferencePrice()
		require.NoError(t, s.SaveReferencePrice(ctx, p))
		assert.NotEmpty(t, p.ID)
		assert.False(t, p.FetchedAt.IsZero())
	})

	t.Run("upsert refreshes price and timestamp", func(t *testing.T) {
		p := testReferencePrice()
		p.Model = "Galaxy S22"
		require.NoError(t, s.SaveReferencePrice(ctx, p))
		firstID := p.ID

		p2 := testReferencePrice()
		p2.Model = "Galaxy S22"
		p2.Price = decimal.NewFromInt(17000)
		require.NoError(t, s.SaveReferencePrice(ctx, p2))

		assert.Equal(t, firstID, p2.ID)

		got, err := s.GetReferencePrice(ctx, "Samsung", "Galaxy S22", "EGP", time.Hour)
		require.NoError(t, err)
		assert.True(t, got.Price.Equal(decimal.NewFromInt(17000)))
	})

	t.Run("upsert is case-insensitive on identity", func(t *testing.T) {
		p := testReferencePrice()
		p.Model = "Galaxy S23"
		require.NoError(t, s.SaveReferencePrice(ctx, p))
		firstID := p.ID

		p2 := testReferencePrice()
		p2.Brand = "SAMSUNG"
		p2.Model = "galaxy s23"
		p2.Currency = "egp"
		p2.Price = decimal.NewFromInt(21000)
		require.NoError(t, s.SaveReferencePrice(ctx, p2))

		assert.Equal(t, firstID, p2.ID, "case variants must share one row")

		got, err := s.GetReferencePrice(ctx, "Samsung", "Galaxy S23", "EGP", time.Hour)
		require.NoError(t, err)
		assert.True(t, got.Price.Equal(decimal.NewFromInt(21000)))
	})
}

func TestPostgresStore_GetReferencePrice(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	p := testReferencePrice()
	require.NoError(t, s.SaveReferencePrice(ctx, p))

	t.Run("case-insensitive lookup", func(t *testing.T) {
		got, err := s.GetReferencePrice(ctx, "samsung", "galaxy s21", "egp", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "Samsung", got.Brand)
		assert.True(t, got.Price.Equal(decimal.NewFromInt(18500)))
		assert.Equal(t, "Jumia Egypt", got.Source)
	})

	t.Run("expired row treated as absent", func(t *testing.T) {
		_, err := s.GetReferencePrice(ctx, "Samsung", "Galaxy S21", "EGP", 0)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := s.GetReferencePrice(ctx, "Nokia", "3310", "EGP", time.Hour)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestPostgresStore_PruneReferencePrices(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	p := testReferencePrice()
	require.NoError(t, s.SaveReferencePrice(ctx, p))

	// Nothing is old enough to prune yet.
	pruned, err := s.PruneReferencePrices(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)

	// A zero cutoff removes everything fetched before now.
	pruned, err = s.PruneReferencePrices(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, err = s.GetReferencePrice(ctx, "Samsung", "Galaxy S21", "EGP", time.Hour)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
