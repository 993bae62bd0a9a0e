package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductUpdate is a partial product update. A nil field is left untouched.
type ProductUpdate struct {
	Name      *string
	Price     *decimal.Decimal
	CatalogID *int64
}

// IsEmpty reports whether the update carries no fields.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Price == nil && u.CatalogID == nil
}

// Validate checks the values of the present fields.
func (u ProductUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrValidation)
	}
	if u.Price != nil {
		if err := ValidatePrice(*u.Price); err != nil {
			return err
		}
	}
	if u.CatalogID != nil && *u.CatalogID <= 0 {
		return fmt.Errorf("%w: catalog_id must be positive", ErrValidation)
	}
	return nil
}

// Apply merges the present fields into p and returns the result.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.CatalogID != nil {
		p.CatalogID = *u.CatalogID
	}
	return p
}
