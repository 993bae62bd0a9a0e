package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/catalogsvc/internal/core"
)

// Memory is a core.Store held in process memory. It mirrors the Postgres
// store's ordering, rounding and error behavior and backs the memory driver
// and the handler tests.
type Memory struct {
	mu         sync.RWMutex
	catalogs   map[int64]core.Catalog
	products   map[int64]core.Product
	catalogSeq int64
	productSeq int64
	now        func() time.Time
}

var _ core.Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		catalogs: make(map[int64]core.Catalog),
		products: make(map[int64]core.Product),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

// Migrate is a no-op; the maps need no schema.
func (m *Memory) Migrate(context.Context) error { return nil }

// Reset removes all records and restarts the identity sequences.
func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs = make(map[int64]core.Catalog)
	m.products = make(map[int64]core.Product)
	m.catalogSeq, m.productSeq = 0, 0
	return nil
}

func (m *Memory) ListCatalogs(_ context.Context, page core.Page) ([]core.CatalogWithCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[int64]int64)
	for _, p := range m.products {
		counts[p.CatalogID]++
	}
	all := make([]core.CatalogWithCount, 0, len(m.catalogs))
	for _, c := range m.catalogs {
		all = append(all, core.CatalogWithCount{Catalog: c, ProductsCount: counts[c.ID]})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return window(all, page), nil
}

func (m *Memory) GetCatalog(_ context.Context, id int64) (core.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.catalogs[id]
	if !ok {
		return core.Catalog{}, core.ErrCatalogNotFound
	}
	return c, nil
}

func (m *Memory) CreateCatalog(_ context.Context, name string) (core.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogSeq++
	c := core.Catalog{ID: m.catalogSeq, Name: name, CreatedAt: m.now()}
	m.catalogs[c.ID] = c
	return c, nil
}

func (m *Memory) UpdateCatalog(_ context.Context, id int64, name string) (core.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.catalogs[id]
	if !ok {
		return core.Catalog{}, core.ErrCatalogNotFound
	}
	c.Name = name
	m.catalogs[id] = c
	return c, nil
}

func (m *Memory) DeleteCatalog(_ context.Context, id int64) (core.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.catalogs[id]
	if !ok {
		return core.Catalog{}, core.ErrCatalogNotFound
	}
	var n int
	for _, p := range m.products {
		if p.CatalogID == id {
			n++
		}
	}
	if n > 0 {
		return core.Catalog{}, fmt.Errorf("%w: %d products reference catalog %d", core.ErrCatalogInUse, n, id)
	}
	delete(m.catalogs, id)
	return c, nil
}

func (m *Memory) BulkCreateCatalogs(_ context.Context, catalogs []core.Catalog) ([]core.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Catalog, len(catalogs))
	for i, c := range catalogs {
		m.catalogSeq++
		c.ID = m.catalogSeq
		c.CreatedAt = storedTime(c.CreatedAt, m.now())
		m.catalogs[c.ID] = c
		out[i] = c
	}
	return out, nil
}

func (m *Memory) ListProducts(_ context.Context, page core.Page) ([]core.Product, error) {
	all := m.sortedProducts(func(core.Product) bool { return true }, newestFirst)
	return window(all, page), nil
}

func (m *Memory) ListProductsByCatalog(_ context.Context, catalogID int64) ([]core.Product, error) {
	return m.sortedProducts(func(p core.Product) bool { return p.CatalogID == catalogID }, newestFirst), nil
}

func (m *Memory) TopProducts(_ context.Context, page core.Page) ([]core.Product, error) {
	all := m.sortedProducts(func(core.Product) bool { return true }, func(a, b core.Product) bool {
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c > 0
		}
		return a.ID < b.ID
	})
	return window(all, page), nil
}

func (m *Memory) GetProduct(_ context.Context, id int64) (core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return core.Product{}, core.ErrProductNotFound
	}
	return p, nil
}

func (m *Memory) CreateProduct(_ context.Context, np core.NewProduct) (core.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.catalogs[np.CatalogID]; !ok {
		return core.Product{}, fmt.Errorf("%w: catalog %d", core.ErrCatalogNotFound, np.CatalogID)
	}
	if err := core.ValidatePrice(np.Price); err != nil {
		return core.Product{}, err
	}
	now := m.now()
	m.productSeq++
	p := core.Product{
		ID:        m.productSeq,
		Name:      np.Name,
		Price:     np.Price.Round(core.PriceScale),
		CreatedAt: now,
		UpdatedAt: now,
		CatalogID: np.CatalogID,
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateProduct(_ context.Context, id int64, u core.ProductUpdate) (core.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.products[id]
	if !ok {
		return core.Product{}, core.ErrProductNotFound
	}
	if u.CatalogID != nil && *u.CatalogID != current.CatalogID {
		if _, ok := m.catalogs[*u.CatalogID]; !ok {
			return core.Product{}, fmt.Errorf("%w: catalog %d", core.ErrCatalogNotFound, *u.CatalogID)
		}
	}
	p := u.Apply(current)
	if err := core.ValidatePrice(p.Price); err != nil {
		return core.Product{}, err
	}
	p.Price = p.Price.Round(core.PriceScale)
	p.UpdatedAt = m.now()
	m.products[id] = p
	return p, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id int64) (core.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return core.Product{}, core.ErrProductNotFound
	}
	delete(m.products, id)
	return p, nil
}

func (m *Memory) BulkCreateProducts(_ context.Context, products []core.Product) ([]core.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// all or nothing, like the single INSERT of the Postgres store
	for i, p := range products {
		if err := core.ValidatePrice(p.Price); err != nil {
			return nil, fmt.Errorf("product %d of batch: %w", i+1, err)
		}
	}
	now := m.now()
	out := make([]core.Product, len(products))
	for i, p := range products {
		m.productSeq++
		p.ID = m.productSeq
		p.Price = p.Price.Round(core.PriceScale)
		p.CreatedAt = storedTime(p.CreatedAt, now)
		p.UpdatedAt = storedTime(p.UpdatedAt, now)
		m.products[p.ID] = p
		out[i] = p
	}
	return out, nil
}

func (m *Memory) sortedProducts(keep func(core.Product) bool, less func(a, b core.Product) bool) []core.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Product, 0, len(m.products))
	for _, p := range m.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirst(a, b core.Product) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// window applies a limit/offset page to a sorted slice.
func window[T any](all []T, page core.Page) []T {
	if page.Offset >= len(all) {
		return []T{}
	}
	all = all[page.Offset:]
	if page.Limit >= 0 && page.Limit < len(all) {
		all = all[:page.Limit]
	}
	return all
}

// storedTime returns t at TIMESTAMPTZ precision, or now when t is zero.
func storedTime(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC().Truncate(time.Microsecond)
}
