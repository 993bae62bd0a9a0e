package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const productColumns = `product_id, name, price::text, created_at, updated_at, catalog_id`

func scanProduct(row pgx.Row) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ProductID,
		&i.Name,
		&i.Price,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CatalogID,
	)
	return i, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var items []Product
	for rows.Next() {
		i, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listProducts = `-- name: ListProducts :many
SELECT ` + productColumns + ` FROM products
ORDER BY created_at DESC, product_id DESC
LIMIT $1 OFFSET $2
`

type ListProductsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

const listProductsByCatalog = `-- name: ListProductsByCatalog :many
SELECT ` + productColumns + ` FROM products
WHERE catalog_id = $1
ORDER BY created_at DESC, product_id DESC
`

func (q *Queries) ListProductsByCatalog(ctx context.Context, catalogID int64) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsByCatalog, catalogID)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

const topProducts = `-- name: TopProducts :many
SELECT ` + productColumns + ` FROM products
ORDER BY price DESC, product_id ASC
LIMIT $1 OFFSET $2
`

type TopProductsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) TopProducts(ctx context.Context, arg TopProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, topProducts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

const countProductsByCatalog = `-- name: CountProductsByCatalog :one
SELECT count(*) FROM products WHERE catalog_id = $1
`

func (q *Queries) CountProductsByCatalog(ctx context.Context, catalogID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countProductsByCatalog, catalogID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getProduct = `-- name: GetProduct :one
SELECT ` + productColumns + ` FROM products
WHERE product_id = $1
`

func (q *Queries) GetProduct(ctx context.Context, productID int64) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, productID))
}

const getProductForUpdate = `-- name: GetProductForUpdate :one
SELECT ` + productColumns + ` FROM products
WHERE product_id = $1
FOR UPDATE
`

func (q *Queries) GetProductForUpdate(ctx context.Context, productID int64) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductForUpdate, productID))
}

const insertProduct = `-- name: InsertProduct :one
INSERT INTO products (name, price, catalog_id)
VALUES ($1, $2::numeric, $3)
RETURNING ` + productColumns + `
`

type InsertProductParams struct {
	Name      string
	Price     string
	CatalogID int64
}

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, insertProduct, arg.Name, arg.Price, arg.CatalogID))
}

const updateProduct = `-- name: UpdateProduct :one
UPDATE products
SET name = $2, price = $3::numeric, catalog_id = $4, updated_at = now()
WHERE product_id = $1
RETURNING ` + productColumns + `
`

type UpdateProductParams struct {
	ProductID int64
	Name      string
	Price     string
	CatalogID int64
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct, arg.ProductID, arg.Name, arg.Price, arg.CatalogID))
}

const deleteProduct = `-- name: DeleteProduct :one
DELETE FROM products
WHERE product_id = $1
RETURNING ` + productColumns + `
`

func (q *Queries) DeleteProduct(ctx context.Context, productID int64) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, deleteProduct, productID))
}

const bulkInsertProducts = `-- name: BulkInsertProducts :many
INSERT INTO products (name, price, created_at, updated_at, catalog_id)
SELECT name, price::numeric, created_at, updated_at, catalog_id
FROM unnest($1::text[], $2::text[], $3::timestamptz[], $4::timestamptz[], $5::bigint[])
	AS t(name, price, created_at, updated_at, catalog_id)
RETURNING ` + productColumns + `
`

type BulkInsertProductsParams struct {
	Names      []string
	Prices     []string
	CreatedAts []time.Time
	UpdatedAts []time.Time
	CatalogIDs []int64
}

// BulkInsertProducts inserts every row in one statement without checking
// that the referenced catalogs exist.
func (q *Queries) BulkInsertProducts(ctx context.Context, arg BulkInsertProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, bulkInsertProducts,
		arg.Names,
		arg.Prices,
		arg.CreatedAts,
		arg.UpdatedAts,
		arg.CatalogIDs,
	)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}
