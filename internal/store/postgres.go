// Package store implements core.Store on PostgreSQL and in memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/JonMunkholm/catalogsvc/internal/core"
	db "github.com/JonMunkholm/catalogsvc/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres is a core.Store backed by a pgx connection pool.
type Postgres struct {
	pool    *pgxpool.Pool
	queries *db.Queries
}

var _ core.Store = (*Postgres)(nil)

// New returns a store using pool. The caller owns the pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool:    pool,
		queries: db.New(pool),
	}
}

// Migrate creates the schema if absent.
func (s *Postgres) Migrate(ctx context.Context) error {
	return s.queries.EnsureSchema(ctx)
}

// Reset truncates both tables.
func (s *Postgres) Reset(ctx context.Context) error {
	return s.queries.ResetAll(ctx)
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// inTx runs fn in a transaction. The transaction commits when fn returns nil
// and rolls back on error or panic; the connection goes back to the pool on
// every path.
func (s *Postgres) inTx(ctx context.Context, fn func(q *db.Queries) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// notFound translates pgx.ErrNoRows into the entity's lookup error.
func notFound(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}

// Catalogs

func (s *Postgres) ListCatalogs(ctx context.Context, page core.Page) ([]core.CatalogWithCount, error) {
	rows, err := s.queries.ListCatalogs(ctx, db.ListCatalogsParams{
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	out := make([]core.CatalogWithCount, len(rows))
	for i, r := range rows {
		out[i] = core.CatalogWithCount{
			Catalog:       core.Catalog{ID: r.CatalogID, Name: r.Name, CreatedAt: r.CreatedAt},
			ProductsCount: r.ProductsCount,
		}
	}
	return out, nil
}

func (s *Postgres) GetCatalog(ctx context.Context, id int64) (core.Catalog, error) {
	row, err := s.queries.GetCatalog(ctx, id)
	if err != nil {
		return core.Catalog{}, notFound(err, core.ErrCatalogNotFound)
	}
	return toCatalog(row), nil
}

func (s *Postgres) CreateCatalog(ctx context.Context, name string) (core.Catalog, error) {
	var out core.Catalog
	err := s.inTx(ctx, func(q *db.Queries) error {
		row, err := q.InsertCatalog(ctx, name)
		if err != nil {
			return fmt.Errorf("insert catalog: %w", err)
		}
		out = toCatalog(row)
		return nil
	})
	return out, err
}

func (s *Postgres) UpdateCatalog(ctx context.Context, id int64, name string) (core.Catalog, error) {
	var out core.Catalog
	err := s.inTx(ctx, func(q *db.Queries) error {
		row, err := q.UpdateCatalogName(ctx, db.UpdateCatalogNameParams{CatalogID: id, Name: name})
		if err != nil {
			return notFound(err, core.ErrCatalogNotFound)
		}
		out = toCatalog(row)
		return nil
	})
	return out, err
}

func (s *Postgres) DeleteCatalog(ctx context.Context, id int64) (core.Catalog, error) {
	var out core.Catalog
	err := s.inTx(ctx, func(q *db.Queries) error {
		if _, err := q.GetCatalog(ctx, id); err != nil {
			return notFound(err, core.ErrCatalogNotFound)
		}
		n, err := q.CountProductsByCatalog(ctx, id)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d products reference catalog %d", core.ErrCatalogInUse, n, id)
		}
		row, err := q.DeleteCatalog(ctx, id)
		if err != nil {
			return notFound(err, core.ErrCatalogNotFound)
		}
		out = toCatalog(row)
		return nil
	})
	return out, err
}

func (s *Postgres) BulkCreateCatalogs(ctx context.Context, catalogs []core.Catalog) ([]core.Catalog, error) {
	if len(catalogs) == 0 {
		return []core.Catalog{}, nil
	}
	arg := db.BulkInsertCatalogsParams{
		Names:      make([]string, len(catalogs)),
		CreatedAts: make([]time.Time, len(catalogs)),
	}
	for i, c := range catalogs {
		arg.Names[i] = c.Name
		arg.CreatedAts[i] = c.CreatedAt
	}

	var out []core.Catalog
	err := s.inTx(ctx, func(q *db.Queries) error {
		rows, err := q.BulkInsertCatalogs(ctx, arg)
		if err != nil {
			return fmt.Errorf("bulk insert catalogs: %w", err)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].CatalogID < rows[j].CatalogID })
		out = make([]core.Catalog, len(rows))
		for i, r := range rows {
			out[i] = toCatalog(r)
		}
		return nil
	})
	return out, err
}

// Products

func (s *Postgres) ListProducts(ctx context.Context, page core.Page) ([]core.Product, error) {
	rows, err := s.queries.ListProducts(ctx, db.ListProductsParams{
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return toProducts(rows)
}

func (s *Postgres) ListProductsByCatalog(ctx context.Context, catalogID int64) ([]core.Product, error) {
	rows, err := s.queries.ListProductsByCatalog(ctx, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list products by catalog: %w", err)
	}
	return toProducts(rows)
}

func (s *Postgres) TopProducts(ctx context.Context, page core.Page) ([]core.Product, error) {
	rows, err := s.queries.TopProducts(ctx, db.TopProductsParams{
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return toProducts(rows)
}

func (s *Postgres) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	row, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		return core.Product{}, notFound(err, core.ErrProductNotFound)
	}
	return toProduct(row)
}

func (s *Postgres) CreateProduct(ctx context.Context, p core.NewProduct) (core.Product, error) {
	var out core.Product
	err := s.inTx(ctx, func(q *db.Queries) error {
		if err := requireCatalog(ctx, q, p.CatalogID); err != nil {
			return err
		}
		row, err := q.InsertProduct(ctx, db.InsertProductParams{
			Name:      p.Name,
			Price:     p.Price.String(),
			CatalogID: p.CatalogID,
		})
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		out, err = toProduct(row)
		return err
	})
	return out, err
}

func (s *Postgres) UpdateProduct(ctx context.Context, id int64, u core.ProductUpdate) (core.Product, error) {
	var out core.Product
	err := s.inTx(ctx, func(q *db.Queries) error {
		row, err := q.GetProductForUpdate(ctx, id)
		if err != nil {
			return notFound(err, core.ErrProductNotFound)
		}
		current, err := toProduct(row)
		if err != nil {
			return err
		}
		if u.CatalogID != nil && *u.CatalogID != current.CatalogID {
			if err := requireCatalog(ctx, q, *u.CatalogID); err != nil {
				return err
			}
		}
		merged := u.Apply(current)
		row, err = q.UpdateProduct(ctx, db.UpdateProductParams{
			ProductID: id,
			Name:      merged.Name,
			Price:     merged.Price.String(),
			CatalogID: merged.CatalogID,
		})
		if err != nil {
			return notFound(err, core.ErrProductNotFound)
		}
		out, err = toProduct(row)
		return err
	})
	return out, err
}

func (s *Postgres) DeleteProduct(ctx context.Context, id int64) (core.Product, error) {
	var out core.Product
	err := s.inTx(ctx, func(q *db.Queries) error {
		row, err := q.DeleteProduct(ctx, id)
		if err != nil {
			return notFound(err, core.ErrProductNotFound)
		}
		out, err = toProduct(row)
		return err
	})
	return out, err
}

func (s *Postgres) BulkCreateProducts(ctx context.Context, products []core.Product) ([]core.Product, error) {
	if len(products) == 0 {
		return []core.Product{}, nil
	}
	n := len(products)
	arg := db.BulkInsertProductsParams{
		Names:      make([]string, n),
		Prices:     make([]string, n),
		CreatedAts: make([]time.Time, n),
		UpdatedAts: make([]time.Time, n),
		CatalogIDs: make([]int64, n),
	}
	for i, p := range products {
		arg.Names[i] = p.Name
		arg.Prices[i] = p.Price.String()
		arg.CreatedAts[i] = p.CreatedAt
		arg.UpdatedAts[i] = p.UpdatedAt
		arg.CatalogIDs[i] = p.CatalogID
	}

	var out []core.Product
	err := s.inTx(ctx, func(q *db.Queries) error {
		rows, err := q.BulkInsertProducts(ctx, arg)
		if err != nil {
			return fmt.Errorf("bulk insert products: %w", err)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].ProductID < rows[j].ProductID })
		out, err = toProducts(rows)
		return err
	})
	return out, err
}

func requireCatalog(ctx context.Context, q *db.Queries, id int64) error {
	ok, err := q.CatalogExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: catalog %d", core.ErrCatalogNotFound, id)
	}
	return nil
}

func toCatalog(r db.Catalog) core.Catalog {
	return core.Catalog{ID: r.CatalogID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func toProduct(r db.Product) (core.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return core.Product{}, fmt.Errorf("product %d: parse price %q: %w", r.ProductID, r.Price, err)
	}
	return core.Product{
		ID:        r.ProductID,
		Name:      r.Name,
		Price:     price,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		CatalogID: r.CatalogID,
	}, nil
}

func toProducts(rows []db.Product) ([]core.Product, error) {
	out := make([]core.Product, len(rows))
	for i, r := range rows {
		p, err := toProduct(r)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
