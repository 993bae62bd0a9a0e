// Package core provides the business logic for the catalog service.
// This package has no transport or driver dependencies and can be used by
// the HTTP server, the CLI, or tests.
package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// EntityKind names one of the two record types the service manages.
type EntityKind string

const (
	KindCatalog EntityKind = "catalogs"
	KindProduct EntityKind = "products"
)

// Catalog is a named grouping that owns zero or more products.
type Catalog struct {
	ID        int64     `json:"catalog_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogWithCount is a catalog as returned by listings, with the number of
// products that reference it.
type CatalogWithCount struct {
	Catalog
	ProductsCount int64 `json:"products_count"`
}

// Product is a priced item belonging to exactly one catalog.
type Product struct {
	ID        int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	CatalogID int64           `json:"catalog_id"`
}

// Prices are stored as NUMERIC(12, 2): cents, at most 9999999999.99.
const PriceScale = 2

// MaxPrice is the largest storable price.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// priceProblem describes why d cannot be stored, or returns "". The bound
// applies after rounding to cents, as the column does.
func priceProblem(d decimal.Decimal) string {
	switch {
	case d.IsNegative():
		return "price must be non-negative"
	case d.Round(PriceScale).GreaterThan(MaxPrice):
		return "price must not exceed " + MaxPrice.StringFixed(PriceScale)
	}
	return ""
}

// ValidatePrice returns an ErrValidation error when d is negative or too
// large for the price column.
func ValidatePrice(d decimal.Decimal) error {
	if msg := priceProblem(d); msg != "" {
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}
	return nil
}

// NewProduct holds the fields accepted by a single product create.
type NewProduct struct {
	Name      string
	Price     decimal.Decimal
	CatalogID int64
}

// Page selects a window of a listing.
type Page struct {
	Limit  int
	Offset int
}

// Store is the record store backing the service. Every method that writes
// runs in its own transaction.
//
// Get, Update and Delete methods return an error wrapping ErrNotFound when
// the identity does not exist. Bulk creates insert all rows in a single
// transaction and return them with identities assigned, in input order;
// they do not check that product catalog references exist.
type Store interface {
	Ping(ctx context.Context) error

	ListCatalogs(ctx context.Context, page Page) ([]CatalogWithCount, error)
	GetCatalog(ctx context.Context, id int64) (Catalog, error)
	CreateCatalog(ctx context.Context, name string) (Catalog, error)
	UpdateCatalog(ctx context.Context, id int64, name string) (Catalog, error)
	DeleteCatalog(ctx context.Context, id int64) (Catalog, error)
	BulkCreateCatalogs(ctx context.Context, catalogs []Catalog) ([]Catalog, error)

	ListProducts(ctx context.Context, page Page) ([]Product, error)
	ListProductsByCatalog(ctx context.Context, catalogID int64) ([]Product, error)
	TopProducts(ctx context.Context, page Page) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p NewProduct) (Product, error)
	UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (Product, error)
	DeleteProduct(ctx context.Context, id int64) (Product, error)
	BulkCreateProducts(ctx context.Context, products []Product) ([]Product, error)
}

// Upload is a tabular file handed to the ingestion pipeline.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64 // 0 if unknown
	Body        io.Reader
}

// ImportOptions controls a single ingestion run.
type ImportOptions struct {
	// RaiseOnError aborts the whole import on the first rejected row.
	// When false, rejected rows are skipped and counted.
	RaiseOnError bool
}

// ImportResult is the outcome of one ingestion run.
type ImportResult[T any] struct {
	ImportID   string        `json:"import_id"`
	Kind       EntityKind    `json:"kind"`
	FileName   string        `json:"file_name,omitempty"`
	TotalRows  int           `json:"total_rows"`
	Inserted   int           `json:"inserted"`
	Skipped    int           `json:"skipped"`
	Rejections []RowError    `json:"rejections,omitempty"`
	Items      []T           `json:"items"`
	Duration   time.Duration `json:"-"`
}
