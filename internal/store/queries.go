package store

// SQL query constants. All SQL lives here; PostgresStore methods
// reference these constants.

// Reference price queries.
const (
	querySaveReferencePrice = `
		INSERT INTO reference_prices (
			brand, model, price, currency, source, fetched_at
		) VALUES (
			@brand, @model, @price, @currency, @source, now()
		)
		ON CONFLICT (lower(brand), lower(model), upper(currency)) DO UPDATE SET
			price = EXCLUDED.price,
			source = EXCLUDED.source,
			fetched_at = now()
		RETURNING id, fetched_at`

	queryGetReferencePrice = `
		SELECT id, brand, model, price, currency, source, fetched_at
		FROM reference_prices
		WHERE lower(brand) = lower($1)
		  AND lower(model) = lower($2)
		  AND upper(currency) = upper($3)
		  AND fetched_at >= $4`

	queryPruneReferencePrices = `
		DELETE FROM reference_prices
		WHERE fetched_at < $1`
)
