package core

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/catalogsvc/internal/config"
	"github.com/JonMunkholm/catalogsvc/internal/logging"
	"github.com/dustin/go-humanize"
)

// Service provides the catalog and product operations on top of a Store.
type Service struct {
	store   Store
	limiter *UploadLimiter
	cfg     *config.Config
}

// NewService creates a new Service instance.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		limiter: NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		cfg:     cfg,
	}
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// page applies the configured default and cap to a listing window.
// A zero limit selects the default. Both fields are kept within int4, the
// type the store binds them as.
func (s *Service) page(p Page, def int) Page {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if max := s.cfg.Pagination.MaxLimit; max > 0 && p.Limit > max {
		p.Limit = max
	}
	if p.Limit > math.MaxInt32 {
		p.Limit = math.MaxInt32
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset > math.MaxInt32 {
		p.Offset = math.MaxInt32
	}
	return p
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be blank", ErrValidation)
	}
	return name, nil
}

// Catalogs

// ListCatalogs returns catalogs newest first, each with its product count.
func (s *Service) ListCatalogs(ctx context.Context, p Page) ([]CatalogWithCount, error) {
	return s.store.ListCatalogs(ctx, s.page(p, s.cfg.Pagination.DefaultLimit))
}

func (s *Service) GetCatalog(ctx context.Context, id int64) (Catalog, error) {
	return s.store.GetCatalog(ctx, id)
}

func (s *Service) CreateCatalog(ctx context.Context, name string) (Catalog, error) {
	name, err := requireName(name)
	if err != nil {
		return Catalog{}, err
	}
	c, err := s.store.CreateCatalog(ctx, name)
	if err != nil {
		return Catalog{}, err
	}
	logging.FromContext(ctx).Info("catalog created", "catalog_id", c.ID)
	return c, nil
}

// UpdateCatalog replaces the catalog's name.
func (s *Service) UpdateCatalog(ctx context.Context, id int64, name string) (Catalog, error) {
	name, err := requireName(name)
	if err != nil {
		return Catalog{}, err
	}
	return s.store.UpdateCatalog(ctx, id, name)
}

// DeleteCatalog deletes a catalog no product references and returns it.
func (s *Service) DeleteCatalog(ctx context.Context, id int64) (Catalog, error) {
	c, err := s.store.DeleteCatalog(ctx, id)
	if err != nil {
		return Catalog{}, err
	}
	logging.FromContext(ctx).Info("catalog deleted", "catalog_id", id)
	return c, nil
}

// Products

// ListProducts returns products newest first.
func (s *Service) ListProducts(ctx context.Context, p Page) ([]Product, error) {
	return s.store.ListProducts(ctx, s.page(p, s.cfg.Pagination.DefaultLimit))
}

// ListProductsByCatalog returns the products referencing catalogID. An
// unknown catalog yields an empty list.
func (s *Service) ListProductsByCatalog(ctx context.Context, catalogID int64) ([]Product, error) {
	return s.store.ListProductsByCatalog(ctx, catalogID)
}

// TopProducts returns the most expensive products first.
func (s *Service) TopProducts(ctx context.Context, p Page) ([]Product, error) {
	return s.store.TopProducts(ctx, s.page(p, s.cfg.Pagination.DefaultTopN))
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.store.GetProduct(ctx, id)
}

// CreateProduct inserts a product after checking its catalog exists.
func (s *Service) CreateProduct(ctx context.Context, p NewProduct) (Product, error) {
	name, err := requireName(p.Name)
	if err != nil {
		return Product{}, err
	}
	p.Name = name
	if err := ValidatePrice(p.Price); err != nil {
		return Product{}, err
	}
	if p.CatalogID <= 0 {
		return Product{}, fmt.Errorf("%w: catalog_id must be positive", ErrValidation)
	}
	out, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}
	logging.FromContext(ctx).Info("product created", "product_id", out.ID, "catalog_id", out.CatalogID)
	return out, nil
}

// UpdateProduct merges the present fields of u into the product. An empty
// update returns the product unchanged, updated_at included.
func (s *Service) UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (Product, error) {
	if err := u.Validate(); err != nil {
		return Product{}, err
	}
	if u.IsEmpty() {
		return s.store.GetProduct(ctx, id)
	}
	return s.store.UpdateProduct(ctx, id, u)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) (Product, error) {
	p, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	logging.FromContext(ctx).Info("product deleted", "product_id", id)
	return p, nil
}

// Imports

// ImportCatalogs loads catalogs from a CSV upload with columns name and
// created_at.
func (s *Service) ImportCatalogs(ctx context.Context, up Upload, opts ImportOptions) (*ImportResult[Catalog], error) {
	return runImport(ctx, s, catalogPipeline(s.store.BulkCreateCatalogs, s.cfg.Upload.MaxRows), up, opts)
}

// ImportProducts loads products from a CSV upload with columns name, price,
// catalog_id, created_at and updated_at. Catalog references are not checked.
func (s *Service) ImportProducts(ctx context.Context, up Upload, opts ImportOptions) (*ImportResult[Product], error) {
	return runImport(ctx, s, productPipeline(s.store.BulkCreateProducts, s.cfg.Upload.MaxRows), up, opts)
}

func runImport[T any](ctx context.Context, s *Service, p pipeline[T], up Upload, opts ImportOptions) (*ImportResult[T], error) {
	if max := s.cfg.Upload.MaxFileSize; max > 0 && up.Size > max {
		return nil, fmt.Errorf("%w: %s exceeds the %s limit",
			ErrFileTooLarge, humanize.Bytes(uint64(up.Size)), humanize.Bytes(uint64(max)))
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}
	return p.run(ctx, up, opts)
}

// UploadLimiterStatus reports the import slots in use.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until running imports finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
