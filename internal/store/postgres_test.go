package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects to TEST_DATABASE_URL, or skips. The tables are
// truncated before each test, so point it at a throwaway database.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Reset(ctx))
	return s
}

func TestPostgres_MigrateIsIdempotent(t *testing.T) {
	s := newTestPostgres(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestPostgres_CatalogLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestPostgres(t)

	c, err := s.CreateCatalog(ctx, "Widgets")
	require.NoError(t, err)
	assert.Positive(t, c.ID)

	got, err := s.GetCatalog(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	_, err = s.UpdateCatalog(ctx, c.ID, "Gadgets")
	require.NoError(t, err)

	list, err := s.ListCatalogs(ctx, core.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Gadgets", list[0].Name)
	assert.Zero(t, list[0].ProductsCount)

	_, err = s.DeleteCatalog(ctx, c.ID)
	require.NoError(t, err)
	_, err = s.GetCatalog(ctx, c.ID)
	assert.ErrorIs(t, err, core.ErrCatalogNotFound)
}

func TestPostgres_BulkRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestPostgres(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	catalogs, err := s.BulkCreateCatalogs(ctx, []core.Catalog{
		{Name: "first", CreatedAt: ts},
		{Name: "second", CreatedAt: ts.Add(time.Hour)},
	})
	require.NoError(t, err)
	require.Len(t, catalogs, 2)
	assert.Equal(t, "first", catalogs[0].Name)
	assert.Equal(t, "second", catalogs[1].Name)
	assert.Less(t, catalogs[0].ID, catalogs[1].ID)

	// catalog 999 does not exist; bulk inserts do not check
	products, err := s.BulkCreateProducts(ctx, []core.Product{
		{Name: "Bolt", Price: decimal.RequireFromString("9.99"), CatalogID: 999, CreatedAt: ts, UpdatedAt: ts},
		{Name: "Nut", Price: decimal.Zero, CatalogID: catalogs[0].ID, CreatedAt: ts, UpdatedAt: ts},
	})
	require.NoError(t, err)
	require.Len(t, products, 2)

	for _, want := range products {
		got, err := s.GetProduct(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
		assert.True(t, want.Price.Equal(got.Price), "price %s != %s", want.Price, got.Price)
		assert.Equal(t, want.CatalogID, got.CatalogID)
		assert.True(t, ts.Equal(got.CreatedAt))
		assert.True(t, ts.Equal(got.UpdatedAt))
	}

	_, err = s.DeleteCatalog(ctx, catalogs[0].ID)
	assert.ErrorIs(t, err, core.ErrCatalogInUse)
}

func TestPostgres_ProductCreateUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestPostgres(t)

	_, err := s.CreateProduct(ctx, core.NewProduct{Name: "Bolt", CatalogID: 12345})
	assert.ErrorIs(t, err, core.ErrCatalogNotFound)

	c, err := s.CreateCatalog(ctx, "Widgets")
	require.NoError(t, err)
	p, err := s.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: decimal.RequireFromString("1.25"), CatalogID: c.ID})
	require.NoError(t, err)

	price := decimal.RequireFromString("3.50")
	got, err := s.UpdateProduct(ctx, p.ID, core.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Bolt", got.Name)
	assert.True(t, price.Equal(got.Price))
	assert.False(t, got.UpdatedAt.Before(p.UpdatedAt))

	top, err := s.TopProducts(ctx, core.Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, p.ID, top[0].ID)

	_, err = s.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = s.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrProductNotFound)
}
