package core_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/catalogsvc/internal/config"
	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/JonMunkholm/catalogsvc/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxRows:       1000,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
		},
		Pagination: config.PaginationConfig{DefaultLimit: 2, MaxLimit: 3, DefaultTopN: 1},
	}
}

func newService(t *testing.T) (*core.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return core.NewService(mem, testConfig()), mem
}

func csv(body string) core.Upload {
	return core.Upload{
		FileName:    "upload.csv",
		ContentType: core.CSVContentType,
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestService_CatalogValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateCatalog(ctx, "   ")
	assert.ErrorIs(t, err, core.ErrValidation)

	c, err := svc.CreateCatalog(ctx, "  Widgets ")
	require.NoError(t, err)
	assert.Equal(t, "Widgets", c.Name)

	_, err = svc.UpdateCatalog(ctx, c.ID, "")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.UpdateCatalog(ctx, 999, "x")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_Pagination(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := svc.CreateCatalog(ctx, name)
		require.NoError(t, err)
	}

	def, err := svc.ListCatalogs(ctx, core.Page{})
	require.NoError(t, err)
	assert.Len(t, def, 2, "default limit")

	capped, err := svc.ListCatalogs(ctx, core.Page{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, capped, 3, "max limit")

	tail, err := svc.ListCatalogs(ctx, core.Page{Limit: 3, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	beyond, err := svc.ListCatalogs(ctx, core.Page{Limit: 3, Offset: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, beyond, "offset past int4 is clamped, never wrapped to the first page")
}

func TestService_PriceBound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c, err := svc.CreateCatalog(ctx, "Widgets")
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: decimal.RequireFromString("100000000000"), CatalogID: c.ID})
	assert.ErrorIs(t, err, core.ErrValidation)

	p, err := svc.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: core.MaxPrice, CatalogID: c.ID})
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(core.MaxPrice))

	over := core.MaxPrice.Add(decimal.RequireFromString("0.01"))
	_, err = svc.UpdateProduct(ctx, p.ID, core.ProductUpdate{Price: &over})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestService_ProductLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, core.NewProduct{Name: "Bolt", CatalogID: 1})
	assert.ErrorIs(t, err, core.ErrCatalogNotFound, "single create checks the catalog")

	c, err := svc.CreateCatalog(ctx, "Hardware")
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, core.NewProduct{Name: "Bolt", Price: decimal.NewFromInt(-1), CatalogID: c.ID})
	assert.ErrorIs(t, err, core.ErrValidation)

	p, err := svc.CreateProduct(ctx, core.NewProduct{Name: " Bolt ", Price: decimal.RequireFromString("0.25"), CatalogID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "Bolt", p.Name)

	same, err := svc.UpdateProduct(ctx, p.ID, core.ProductUpdate{})
	require.NoError(t, err)
	assert.Equal(t, p, same, "empty update leaves the product untouched")

	price := decimal.RequireFromString("4")
	updated, err := svc.UpdateProduct(ctx, p.ID, core.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, p.Name, updated.Name)

	_, err = svc.DeleteCatalog(ctx, c.ID)
	assert.ErrorIs(t, err, core.ErrCatalogInUse)

	_, err = svc.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrProductNotFound)
}

func TestService_TopProductsDefault(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	_, err := mem.BulkCreateProducts(ctx, []core.Product{
		{Name: "a", Price: decimal.NewFromInt(1)},
		{Name: "b", Price: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)

	top, err := svc.TopProducts(ctx, core.Page{})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].Name)
}

func TestService_ImportCatalogs(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	body := "name,created_at\nWidgets,2024-01-01 00:00:00\n,2024-01-02 00:00:00\nGadgets,not-a-date\n"
	res, err := svc.ImportCatalogs(ctx, csv(body), core.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)

	list, err := mem.ListCatalogs(ctx, core.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Widgets", list[0].Name)

	// round trip: the returned identity fetches an equal value
	got, err := svc.GetCatalog(ctx, res.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, res.Items[0], got)
}

func TestService_ImportRaiseOnErrorLeavesStoreUntouched(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	body := "name,price,catalog_id,created_at,updated_at\n" +
		"Bolt,1,1,2024-01-01,2024-01-01\n" +
		"Nut,abc,1,2024-01-01,2024-01-01\n"
	_, err := svc.ImportProducts(ctx, csv(body), core.ImportOptions{RaiseOnError: true})
	require.Error(t, err)

	var rerr *core.RowError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, core.InvalidNumber, rerr.Kind)

	all, err := mem.ListProducts(ctx, core.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_ImportIdentitiesAreFresh(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	existing, err := svc.CreateCatalog(ctx, "existing")
	require.NoError(t, err)

	res, err := svc.ImportCatalogs(ctx, csv("name,created_at\na,2024-01-01\nb,2024-01-02\n"), core.ImportOptions{})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	for _, c := range res.Items {
		assert.NotEqual(t, existing.ID, c.ID)
	}
	assert.NotEqual(t, res.Items[0].ID, res.Items[1].ID)
}

func TestService_ImportFileTooLarge(t *testing.T) {
	svc, _ := newService(t)
	up := csv("name,created_at\n")
	up.Size = 2 << 20

	_, err := svc.ImportCatalogs(context.Background(), up, core.ImportOptions{})
	assert.ErrorIs(t, err, core.ErrFileTooLarge)
	assert.Contains(t, err.Error(), "MB")
	assert.Equal(t, 0, svc.UploadLimiterStatus().Active)
}

func TestService_ImportReleasesSlot(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.ImportCatalogs(ctx, csv(""), core.ImportOptions{})
	assert.ErrorIs(t, err, core.ErrEmptyFile)

	status := svc.UploadLimiterStatus()
	assert.Equal(t, 0, status.Active)
	assert.Equal(t, 2, status.Available)
	assert.NoError(t, svc.WaitForUploads(ctx))
}
