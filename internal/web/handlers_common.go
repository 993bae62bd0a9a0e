package web

// handlers_common.go holds request parsing and response envelopes shared by
// the catalog, product and ETL handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxJSONBody caps request bodies of the CRUD endpoints.
const maxJSONBody = 1 << 20

// PaginatedResponse is the envelope for listings. Count is the number of
// items in this response, not the total in the store.
type PaginatedResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

func paginated[T any](items []T) PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PaginatedResponse[T]{Count: len(items), Items: items}
}

// parseIDParam parses a positive integer path parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", core.ErrValidation, name, raw)
	}
	return id, nil
}

// parseIntQuery parses a non-negative integer query parameter that fits the
// store's int4 bind parameters. Absent parameters yield 0, which the service
// reads as "use the default".
func parseIntQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	i, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %s must be an integer between 0 and %d, got %q",
			core.ErrValidation, name, math.MaxInt32, raw)
	}
	return int(i), nil
}

// parsePage reads the listing window from limitParam and offset.
func parsePage(r *http.Request, limitParam string) (core.Page, error) {
	limit, err := parseIntQuery(r, limitParam)
	if err != nil {
		return core.Page{}, err
	}
	offset, err := parseIntQuery(r, "offset")
	if err != nil {
		return core.Page{}, err
	}
	return core.Page{Limit: limit, Offset: offset}, nil
}

// parseBoolQuery parses an optional boolean query parameter.
func parseBoolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", core.ErrValidation, name, raw)
	}
	return b, nil
}

// decodeJSON reads a size-capped JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", core.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", core.ErrValidation, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", core.ErrValidation, describeValidation(err))
	}
	return nil
}

// describeValidation flattens validator errors into "field: rule" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts[i] = fmt.Sprintf("%s: %s", fe.Field(), rule)
	}
	return strings.Join(parts, ", ")
}
