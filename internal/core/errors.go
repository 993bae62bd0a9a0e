package core

import "errors"

// Lookup errors. The entity-specific errors wrap ErrNotFound so callers can
// test for either.
var (
	ErrNotFound        = errors.New("not found")
	ErrCatalogNotFound = notFound("catalog not found")
	ErrProductNotFound = notFound("product not found")
)

// ErrCatalogInUse is returned when deleting a catalog that products still reference.
var ErrCatalogInUse = errors.New("catalog still has products")

// ErrValidation marks malformed input: request bodies and rejected rows.
var ErrValidation = errors.New("validation failed")

// Ingestion errors.
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type: file must be text/csv")
	ErrStructuralParse      = errors.New("invalid csv")
	ErrEmptyFile            = errors.New("empty file")
	ErrNoValidRows          = errors.New("no valid rows")
	ErrFileTooLarge         = errors.New("file too large")
	ErrTooManyRows          = errors.New("too many rows")
)

type notFoundError struct{ msg string }

func notFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string { return e.msg }
func (e *notFoundError) Unwrap() error { return ErrNotFound }
