package database

import (
	"time"
)

type Catalog struct {
	CatalogID int64
	Name      string
	CreatedAt time.Time
}

type CatalogWithCount struct {
	CatalogID     int64
	Name          string
	CreatedAt     time.Time
	ProductsCount int64
}

// Product.Price is the NUMERIC column rendered as text, so no precision is
// lost between the database and decimal.Decimal.
type Product struct {
	ProductID int64
	Name      string
	Price     string
	CreatedAt time.Time
	UpdatedAt time.Time
	CatalogID int64
}
