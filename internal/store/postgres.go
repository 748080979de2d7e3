package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled
// PostgreSQL). Methods require live Postgres and are covered by the
// integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// SaveReferencePrice inserts or refreshes the cached new-unit price for
// a (brand, model, currency) key.
func (s *PostgresStore) SaveReferencePrice(ctx context.Context, p *domain.ReferencePrice) error {
	args := pgx.NamedArgs{
		"brand":    p.Brand,
		"model":    p.Model,
		"price":    p.Price,
		"currency": p.Currency,
		"source":   p.Source,
	}

	if err := s.pool.QueryRow(ctx, querySaveReferencePrice, args).Scan(&p.ID, &p.FetchedAt); err != nil {
		return fmt.Errorf("saving reference price: %w", err)
	}
	return nil
}

// GetReferencePrice retrieves the cached price for a device model,
// ignoring rows fetched longer than maxAge ago.
func (s *PostgresStore) GetReferencePrice(
	ctx context.Context,
	brand, model, currency string,
	maxAge time.Duration,
) (*domain.ReferencePrice, error) {
	cutoff := time.Now().Add(-maxAge)

	p := &domain.ReferencePrice{}
	err := s.pool.QueryRow(ctx, queryGetReferencePrice, brand, model, currency, cutoff).Scan(
		&p.ID, &p.Brand, &p.Model, &p.Price, &p.Currency, &p.Source, &p.FetchedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting reference price: %w", err)
	}
	return p, nil
}

// PruneReferencePrices deletes rows fetched longer than olderThan ago.
func (s *PostgresStore) PruneReferencePrices(
	ctx context.Context,
	olderThan time.Duration,
) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, queryPruneReferencePrices, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning reference prices: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
