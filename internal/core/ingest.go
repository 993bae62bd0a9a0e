package core

// ingest.go implements bulk CSV ingestion.
//
// An import reads the whole file, validates every row in document order and
// keeps the valid entities in memory. Only after the last row does it issue a
// single bulk insert, so:
//
//   - an abort (RaiseOnError, cancellation, structural error) never leaves
//     partial rows in the store
//   - the store sees exactly one round trip per file, whatever its size
//
// The price is that the accepted rows of a file must fit in memory; MaxRows
// bounds that.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/catalogsvc/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// CSVContentType is the only declared content type accepted for uploads.
const CSVContentType = "text/csv"

// ContextCheckInterval is how often (in rows) the pipeline checks for cancellation.
var ContextCheckInterval = 100

// MaxReportedRejections caps the rejections kept in an ImportResult.
// Skipped rows beyond the cap are still counted.
var MaxReportedRejections = 100

// pipeline binds the per-kind pieces of an import.
type pipeline[T any] struct {
	kind     EntityKind
	dateCols []string // must be present in the header
	validate func(HeaderIndex, []string) (T, *RowError)
	insert   func(context.Context, []T) ([]T, error)
	maxRows  int // 0 means unlimited
}

// run executes the import. For ErrEmptyFile and ErrNoValidRows the partial
// result is returned alongside the error so callers can report counts.
func (p pipeline[T]) run(ctx context.Context, up Upload, opts ImportOptions) (*ImportResult[T], error) {
	start := time.Now()
	result := &ImportResult[T]{
		ImportID: uuid.NewString(),
		Kind:     p.kind,
		FileName: up.FileName,
		Items:    []T{},
	}
	logger := logging.WithFields(ctx,
		"import_id", result.ImportID,
		"kind", p.kind,
		"file", up.FileName,
	)

	if up.ContentType != CSVContentType {
		return nil, fmt.Errorf("%w (got %q)", ErrUnsupportedMediaType, up.ContentType)
	}

	src, counter := WrapForCSV(up.Body)
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return result, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrStructuralParse, err)
	}
	idx := MakeHeaderIndex(sanitizeRow(header))
	for _, col := range p.dateCols {
		if !idx.Has(col) {
			return nil, fmt.Errorf("%w: missing date column %q", ErrStructuralParse, col)
		}
	}

	var valid []T
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStructuralParse, err)
		}
		line, _ := r.FieldPos(0)

		result.TotalRows++
		if p.maxRows > 0 && result.TotalRows > p.maxRows {
			return nil, fmt.Errorf("%w: limit is %d rows", ErrTooManyRows, p.maxRows)
		}
		if result.TotalRows%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		entity, rejection := p.validate(idx, sanitizeRow(record))
		if rejection != nil {
			rejection.Line = line
			if opts.RaiseOnError {
				logger.Warn("import aborted", "line", line, "kind", rejection.Kind, "reason", rejection.Reason)
				return nil, rejection
			}
			logger.Warn("skipping row", "line", line, "kind", rejection.Kind, "reason", rejection.Reason)
			result.Skipped++
			if len(result.Rejections) < MaxReportedRejections {
				result.Rejections = append(result.Rejections, *rejection)
			}
			continue
		}
		valid = append(valid, entity)
	}

	logger.Info("file read",
		"rows", result.TotalRows,
		"bytes", humanize.Bytes(uint64(counter.BytesRead)),
	)

	if result.TotalRows == 0 {
		return result, ErrEmptyFile
	}
	if len(valid) == 0 {
		result.Duration = time.Since(start)
		return result, ErrNoValidRows
	}

	// Cancelled before the write: accumulated rows are dropped.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inserted, err := p.insert(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("bulk insert %s: %w", p.kind, err)
	}

	result.Items = inserted
	result.Inserted = len(inserted)
	result.Duration = time.Since(start)

	logger.Info("import complete",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// Message summarises the import for API responses.
func (r *ImportResult[T]) Message() string {
	return fmt.Sprintf("Successfully loaded %d %s, %d skipped entries", r.Inserted, r.Kind, r.Skipped)
}

func catalogPipeline(insert func(context.Context, []Catalog) ([]Catalog, error), maxRows int) pipeline[Catalog] {
	return pipeline[Catalog]{
		kind:     KindCatalog,
		dateCols: []string{ColCreatedAt},
		validate: ValidateCatalogRow,
		insert:   insert,
		maxRows:  maxRows,
	}
}

func productPipeline(insert func(context.Context, []Product) ([]Product, error), maxRows int) pipeline[Product] {
	return pipeline[Product]{
		kind:     KindProduct,
		dateCols: []string{ColCreatedAt, ColUpdatedAt},
		validate: ValidateProductRow,
		insert:   insert,
		maxRows:  maxRows,
	}
}
