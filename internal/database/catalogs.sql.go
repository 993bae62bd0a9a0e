package database

import (
	"context"
	"time"
)

const listCatalogs = `-- name: ListCatalogs :many
SELECT c.catalog_id, c.name, c.created_at, count(p.product_id) AS products_count
FROM catalogs c
LEFT JOIN products p ON p.catalog_id = c.catalog_id
GROUP BY c.catalog_id
ORDER BY c.created_at DESC, c.catalog_id DESC
LIMIT $1 OFFSET $2
`

type ListCatalogsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListCatalogs(ctx context.Context, arg ListCatalogsParams) ([]CatalogWithCount, error) {
	rows, err := q.db.Query(ctx, listCatalogs, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CatalogWithCount
	for rows.Next() {
		var i CatalogWithCount
		if err := rows.Scan(
			&i.CatalogID,
			&i.Name,
			&i.CreatedAt,
			&i.ProductsCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCatalog = `-- name: GetCatalog :one
SELECT catalog_id, name, created_at FROM catalogs
WHERE catalog_id = $1
`

func (q *Queries) GetCatalog(ctx context.Context, catalogID int64) (Catalog, error) {
	row := q.db.QueryRow(ctx, getCatalog, catalogID)
	var i Catalog
	err := row.Scan(&i.CatalogID, &i.Name, &i.CreatedAt)
	return i, err
}

const catalogExists = `-- name: CatalogExists :one
SELECT EXISTS (SELECT 1 FROM catalogs WHERE catalog_id = $1)
`

func (q *Queries) CatalogExists(ctx context.Context, catalogID int64) (bool, error) {
	row := q.db.QueryRow(ctx, catalogExists, catalogID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertCatalog = `-- name: InsertCatalog :one
INSERT INTO catalogs (name)
VALUES ($1)
RETURNING catalog_id, name, created_at
`

func (q *Queries) InsertCatalog(ctx context.Context, name string) (Catalog, error) {
	row := q.db.QueryRow(ctx, insertCatalog, name)
	var i Catalog
	err := row.Scan(&i.CatalogID, &i.Name, &i.CreatedAt)
	return i, err
}

const updateCatalogName = `-- name: UpdateCatalogName :one
UPDATE catalogs SET name = $2
WHERE catalog_id = $1
RETURNING catalog_id, name, created_at
`

type UpdateCatalogNameParams struct {
	CatalogID int64
	Name      string
}

func (q *Queries) UpdateCatalogName(ctx context.Context, arg UpdateCatalogNameParams) (Catalog, error) {
	row := q.db.QueryRow(ctx, updateCatalogName, arg.CatalogID, arg.Name)
	var i Catalog
	err := row.Scan(&i.CatalogID, &i.Name, &i.CreatedAt)
	return i, err
}

const deleteCatalog = `-- name: DeleteCatalog :one
DELETE FROM catalogs
WHERE catalog_id = $1
RETURNING catalog_id, name, created_at
`

func (q *Queries) DeleteCatalog(ctx context.Context, catalogID int64) (Catalog, error) {
	row := q.db.QueryRow(ctx, deleteCatalog, catalogID)
	var i Catalog
	err := row.Scan(&i.CatalogID, &i.Name, &i.CreatedAt)
	return i, err
}

const bulkInsertCatalogs = `-- name: BulkInsertCatalogs :many
INSERT INTO catalogs (name, created_at)
SELECT * FROM unnest($1::text[], $2::timestamptz[])
RETURNING catalog_id, name, created_at
`

type BulkInsertCatalogsParams struct {
	Names      []string
	CreatedAts []time.Time
}

// BulkInsertCatalogs inserts every row in one statement. Identities are
// assigned in input order, so sorting the result by catalog_id restores it.
func (q *Queries) BulkInsertCatalogs(ctx context.Context, arg BulkInsertCatalogsParams) ([]Catalog, error) {
	rows, err := q.db.Query(ctx, bulkInsertCatalogs, arg.Names, arg.CreatedAts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Catalog
	for rows.Next() {
		var i Catalog
		if err := rows.Scan(&i.CatalogID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
