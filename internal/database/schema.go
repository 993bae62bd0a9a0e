package database

import (
	"context"
	"fmt"
)

// schemaStatements create the tables and indexes if absent. Each runs as its
// own statement so the list can grow without a migration tool.
//
// products.catalog_id carries no foreign key constraint: bulk imports accept
// rows whose catalog does not exist yet.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS catalogs (
		catalog_id BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		price      NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (price >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		catalog_id BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_catalogs_created_at ON catalogs (created_at DESC, catalog_id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_products_catalog_id ON products (catalog_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_price ON products (price DESC, product_id)`,
}

// EnsureSchema creates the schema if it does not exist. Safe to run on every start.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := q.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

const resetAll = `-- name: ResetAll :exec
TRUNCATE products, catalogs RESTART IDENTITY
`

// ResetAll removes every catalog and product and restarts the identity sequences.
func (q *Queries) ResetAll(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetAll)
	return err
}
