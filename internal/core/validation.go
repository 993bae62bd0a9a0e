package core

// validation.go converts one CSV row into a catalog or product, or explains
// why it cannot.
//
// Checks run in a fixed order per row and stop at the first failure:
//  1. Required fields present (before any trimming)
//  2. Numbers parse (products)
//  3. Timestamps parse
//  4. Catalog reference parses (products; existence is not checked)
//
// Rows are independent: validating one never depends on another.

import (
	"fmt"
	"strings"
	"time"
)

// CSV column names.
const (
	ColName      = "name"
	ColPrice     = "price"
	ColCatalogID = "catalog_id"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"
)

// RejectionKind classifies why a row was rejected.
type RejectionKind string

const (
	MissingField  RejectionKind = "MissingField"
	InvalidDate   RejectionKind = "InvalidDate"
	InvalidNumber RejectionKind = "InvalidNumber"
)

// RowError describes a rejected row.
type RowError struct {
	Kind   RejectionKind `json:"kind"`
	Line   int           `json:"line"` // 1-indexed line in the file, header is line 1
	Column string        `json:"column"`
	Value  string        `json:"value,omitempty"`
	Reason string        `json:"reason"`
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap lets callers match any row rejection with errors.Is(err, ErrValidation).
func (e *RowError) Unwrap() error { return ErrValidation }

func missing(column string) *RowError {
	return &RowError{
		Kind:   MissingField,
		Column: column,
		Reason: fmt.Sprintf("required field %q is missing", column),
	}
}

func invalidDate(column, value string) *RowError {
	return &RowError{
		Kind:   InvalidDate,
		Column: column,
		Value:  value,
		Reason: fmt.Sprintf("invalid date for %q: %q", column, value),
	}
}

func invalidNumber(column, value, reason string) *RowError {
	return &RowError{
		Kind:   InvalidNumber,
		Column: column,
		Value:  value,
		Reason: fmt.Sprintf("invalid number for %q: %s", column, reason),
	}
}

// ValidateCatalogRow builds a catalog from a row with name and created_at.
//
// The required check sees the untrimmed name, so a name made only of
// whitespace passes and is stored as the empty string.
func ValidateCatalogRow(idx HeaderIndex, row []string) (Catalog, *RowError) {
	name, ok := idx.Cell(row, ColName)
	if !ok {
		return Catalog{}, missing(ColName)
	}
	rawCreated, ok := idx.Cell(row, ColCreatedAt)
	if !ok {
		return Catalog{}, missing(ColCreatedAt)
	}

	createdAt, ok := ParseTimestamp(rawCreated)
	if !ok {
		return Catalog{}, invalidDate(ColCreatedAt, rawCreated)
	}

	return Catalog{
		Name:      strings.TrimSpace(name),
		CreatedAt: createdAt,
	}, nil
}

// ValidateProductRow builds a product from a row with name, price,
// catalog_id, created_at and updated_at. The catalog reference is parsed but
// not checked against the store.
func ValidateProductRow(idx HeaderIndex, row []string) (Product, *RowError) {
	name, ok := idx.Cell(row, ColName)
	if !ok {
		return Product{}, missing(ColName)
	}
	rawPrice, ok := idx.Cell(row, ColPrice)
	if !ok {
		return Product{}, missing(ColPrice)
	}

	price, err := ParsePrice(rawPrice)
	if err != nil {
		return Product{}, invalidNumber(ColPrice, rawPrice, err.Error())
	}
	if msg := priceProblem(price); msg != "" {
		return Product{}, invalidNumber(ColPrice, rawPrice, msg)
	}

	createdAt, rerr := requireTimestamp(idx, row, ColCreatedAt)
	if rerr != nil {
		return Product{}, rerr
	}
	updatedAt, rerr := requireTimestamp(idx, row, ColUpdatedAt)
	if rerr != nil {
		return Product{}, rerr
	}

	rawCatalog, ok := idx.Cell(row, ColCatalogID)
	if !ok {
		return Product{}, missing(ColCatalogID)
	}
	catalogID, err := ParseID(rawCatalog)
	if err != nil {
		return Product{}, invalidNumber(ColCatalogID, rawCatalog, err.Error())
	}

	return Product{
		Name:      strings.TrimSpace(name),
		Price:     price,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		CatalogID: catalogID,
	}, nil
}

// requireTimestamp resolves a date column that is not part of the required
// field check: absent and unparsable values are both InvalidDate.
func requireTimestamp(idx HeaderIndex, row []string, column string) (time.Time, *RowError) {
	raw, _ := idx.Cell(row, column)
	t, ok := ParseTimestamp(raw)
	if !ok {
		return time.Time{}, invalidDate(column, raw)
	}
	return t, nil
}
