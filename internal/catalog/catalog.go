// Package catalog reads approved price quotes and store records from
// Postgres. The comparison engine consumes it as a read-only source; a
// richer price-history or trust model can be substituted behind the
// engine's CatalogSource interface without touching the orchestrator.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketpadi/compare-service/internal/engine"
)

// PostgresCatalog implements engine.CatalogSource and engine.StoreSource
// on top of the prices and stores tables.
type PostgresCatalog struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresCatalog creates a Postgres-backed catalog reader.
func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{
		pool:   pool,
		logger: log.With().Str("component", "catalog").Logger(),
	}
}

// PriceAtStore returns the most recent approved price for an item at a
// store. The item name is matched case-insensitively as a substring, the
// same matching rule users see in search.
func (c *PostgresCatalog) PriceAtStore(ctx context.Context, name string, categoryID *int64, storeID int64) (float64, bool, error) {
	query := `
		SELECT price
		FROM prices
		WHERE store_id = $1
		  AND name ILIKE '%' || $2 || '%'
		  AND status = 'approved'
	`
	args := []any{storeID, name}
	if categoryID != nil {
		query += ` AND category_id = $3`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY submitted_at DESC LIMIT 1`

	var price float64
	err := c.pool.QueryRow(ctx, query, args...).Scan(&price)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query price for %q at store %d: %w", name, storeID, err)
	}
	return price, true, nil
}

// AveragePrice returns the mean approved price for an item across all
// stores, optionally scoped to a category. Not-found is not an error.
func (c *PostgresCatalog) AveragePrice(ctx context.Context, name string, categoryID *int64) (float64, bool, error) {
	query := `
		SELECT AVG(price)
		FROM prices
		WHERE name ILIKE '%' || $1 || '%'
		  AND status = 'approved'
	`
	args := []any{name}
	if categoryID != nil {
		query += ` AND category_id = $2`
		args = append(args, *categoryID)
	}

	var avg *float64
	err := c.pool.QueryRow(ctx, query, args...).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query average price for %q: %w", name, err)
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

// ListStores returns every store, including those without coordinates;
// the engine filters candidates itself.
func (c *PostgresCatalog) ListStores(ctx context.Context) ([]engine.Store, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, lat, lng
		FROM stores
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	stores := []engine.Store{}
	for rows.Next() {
		var (
			s        engine.Store
			lat, lng *float64
		)
		if err := rows.Scan(&s.ID, &s.Name, &lat, &lng); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		if lat != nil && lng != nil {
			s.Location = &engine.Location{Latitude: *lat, Longitude: *lng}
		}
		stores = append(stores, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating stores: %w", rows.Err())
	}
	return stores, nil
}
