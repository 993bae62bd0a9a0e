package store

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CatalogLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	c, err := m.CreateCatalog(ctx, "Widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := m.GetCatalog(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	updated, err := m.UpdateCatalog(ctx, c.ID, "Gadgets")
	require.NoError(t, err)
	assert.Equal(t, "Gadgets", updated.Name)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)

	deleted, err := m.DeleteCatalog(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, deleted)

	_, err = m.GetCatalog(ctx, c.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = m.UpdateCatalog(ctx, c.ID, "x")
	assert.ErrorIs(t, err, core.ErrCatalogNotFound)
	_, err = m.DeleteCatalog(ctx, c.ID)
	assert.ErrorIs(t, err, core.ErrCatalogNotFound)
}

func TestMemory_ListCatalogsOrderAndCounts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := m.BulkCreateCatalogs(ctx, []core.Catalog{
		{Name: "old", CreatedAt: base},
		{Name: "new", CreatedAt: base.Add(48 * time.Hour)},
		{Name: "mid", CreatedAt: base.Add(24 * time.Hour)},
	})
	require.NoError(t, err)
	_, err = m.BulkCreateProducts(ctx, []core.Product{
		{Name: "a", CatalogID: 1, CreatedAt: base, UpdatedAt: base},
		{Name: "b", CatalogID: 1, CreatedAt: base, UpdatedAt: base},
		{Name: "c", CatalogID: 3, CreatedAt: base, UpdatedAt: base},
	})
	require.NoError(t, err)

	list, err := m.ListCatalogs(ctx, core.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, []int64{0, 1, 2}, []int64{list[0].ProductsCount, list[1].ProductsCount, list[2].ProductsCount})

	page, err := m.ListCatalogs(ctx, core.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mid", page[0].Name)

	empty, err := m.ListCatalogs(ctx, core.Page{Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory_DeleteCatalogInUse(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	c, err := m.CreateCatalog(ctx, "Widgets")
	require.NoError(t, err)
	p, err := m.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: decimal.RequireFromString("1.50"), CatalogID: c.ID})
	require.NoError(t, err)

	_, err = m.DeleteCatalog(ctx, c.ID)
	assert.ErrorIs(t, err, core.ErrCatalogInUse)

	_, err = m.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = m.DeleteCatalog(ctx, c.ID)
	assert.NoError(t, err)
}

func TestMemory_CreateProductRequiresCatalog(t *testing.T) {
	m := NewMemory()
	_, err := m.CreateProduct(context.Background(), core.NewProduct{Name: "Bolt", CatalogID: 42})
	assert.ErrorIs(t, err, core.ErrCatalogNotFound)
}

func TestMemory_BulkCreateProductsSkipsCatalogCheck(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	out, err := m.BulkCreateProducts(ctx, []core.Product{
		{Name: "Bolt", Price: decimal.RequireFromString("9.99"), CatalogID: 1, CreatedAt: ts, UpdatedAt: ts},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got, err := m.GetProduct(ctx, out[0].ID)
	require.NoError(t, err)
	assert.Equal(t, out[0], got)
	assert.Equal(t, ts, got.CreatedAt)
}

func TestMemory_BulkCreateTruncatesTimestamps(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 123456789, time.UTC)

	out, err := m.BulkCreateProducts(ctx, []core.Product{
		{Name: "Bolt", Price: decimal.RequireFromString("1"), CatalogID: 1, CreatedAt: ts, UpdatedAt: ts},
	})
	require.NoError(t, err)
	want := time.Date(2024, 1, 1, 0, 0, 0, 123456000, time.UTC)
	assert.True(t, want.Equal(out[0].CreatedAt), "created_at = %v", out[0].CreatedAt)
	assert.True(t, want.Equal(out[0].UpdatedAt), "updated_at = %v", out[0].UpdatedAt)

	cats, err := m.BulkCreateCatalogs(ctx, []core.Catalog{{Name: "Widgets", CreatedAt: ts}})
	require.NoError(t, err)
	assert.True(t, want.Equal(cats[0].CreatedAt), "catalog created_at = %v", cats[0].CreatedAt)
}

func TestMemory_PriceOutOfRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c, err := m.CreateCatalog(ctx, "Widgets")
	require.NoError(t, err)
	huge := decimal.RequireFromString("100000000000")

	_, err = m.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: huge, CatalogID: c.ID})
	assert.ErrorIs(t, err, core.ErrValidation)

	p, err := m.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: core.MaxPrice, CatalogID: c.ID})
	require.NoError(t, err)
	_, err = m.UpdateProduct(ctx, p.ID, core.ProductUpdate{Price: &huge})
	assert.ErrorIs(t, err, core.ErrValidation)

	// the whole batch fails and nothing is stored
	_, err = m.BulkCreateProducts(ctx, []core.Product{
		{Name: "Ok", Price: decimal.RequireFromString("1"), CatalogID: c.ID},
		{Name: "Huge", Price: huge, CatalogID: c.ID},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
	all, err := m.ListProducts(ctx, core.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemory_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c, err := m.CreateCatalog(ctx, "Widgets")
	require.NoError(t, err)
	p, err := m.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: decimal.RequireFromString("2"), CatalogID: c.ID})
	require.NoError(t, err)

	name := "  Nut "
	got, err := m.UpdateProduct(ctx, p.ID, core.ProductUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Nut", got.Name)
	assert.True(t, got.Price.Equal(p.Price), "price untouched")
	assert.False(t, got.UpdatedAt.Before(p.UpdatedAt))

	missing := int64(99)
	_, err = m.UpdateProduct(ctx, p.ID, core.ProductUpdate{CatalogID: &missing})
	assert.ErrorIs(t, err, core.ErrCatalogNotFound)

	_, err = m.UpdateProduct(ctx, 1234, core.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, core.ErrProductNotFound)
}

func TestMemory_TopProducts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.BulkCreateProducts(ctx, []core.Product{
		{Name: "cheap", Price: decimal.RequireFromString("1")},
		{Name: "dear", Price: decimal.RequireFromString("100")},
		{Name: "mid", Price: decimal.RequireFromString("10")},
		{Name: "mid-too", Price: decimal.RequireFromString("10")},
	})
	require.NoError(t, err)

	top, err := m.TopProducts(ctx, core.Page{Limit: 3})
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"dear", "mid", "mid-too"}, []string{top[0].Name, top[1].Name, top[2].Name})

	next, err := m.TopProducts(ctx, core.Page{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "cheap", next[0].Name)
}

func TestMemory_ListProductsByCatalog(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.BulkCreateProducts(ctx, []core.Product{
		{Name: "a", CatalogID: 1},
		{Name: "b", CatalogID: 2},
		{Name: "c", CatalogID: 1},
	})
	require.NoError(t, err)

	items, err := m.ListProductsByCatalog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, p := range items {
		assert.Equal(t, int64(1), p.CatalogID)
	}

	none, err := m.ListProductsByCatalog(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.CreateCatalog(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, m.Reset(ctx))

	c, err := m.CreateCatalog(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}
