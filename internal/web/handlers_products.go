package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/JonMunkholm/catalogsvc/internal/logging"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Name      string          `json:"name" validate:"required,max=255"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	CatalogID int64           `json:"catalog_id" validate:"required,gt=0"`
}

// handleListProducts returns products newest first. Query: limit, offset.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, "limit")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	items, err := s.service.ListProducts(r.Context(), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginated(items))
}

// handleTopProducts returns the most expensive products. Query: topN, offset.
func (s *Server) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, "topN")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	items, err := s.service.TopProducts(r.Context(), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginated(items))
}

func (s *Server) handleListProductsByCatalog(w http.ResponseWriter, r *http.Request) {
	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	items, err := s.service.ListProductsByCatalog(r.Context(), catalogID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginated(items))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := s.service.GetProduct(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCreateProduct creates a product in an existing catalog. Price
// defaults to 0.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := s.service.CreateProduct(r.Context(), core.NewProduct{
		Name:      req.Name,
		Price:     req.Price,
		CatalogID: req.CatalogID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleUpdateProduct applies a partial update. Fields whose JSON type does
// not match (a string price, a numeric name) are ignored, not rejected.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&body); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: body must be a JSON object: %v", core.ErrValidation, err))
		return
	}

	update, ignored := decodeProductPatch(body)
	if len(ignored) > 0 {
		logging.FromContext(r.Context()).Debug("patch fields ignored", "product_id", id, "fields", ignored)
	}

	p, err := s.service.UpdateProduct(r.Context(), id, update)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := s.service.DeleteProduct(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// decodeProductPatch extracts the typed fields of a PATCH body. Null
// values and values of the wrong JSON type are dropped and reported in
// ignored; unknown keys are skipped silently.
func decodeProductPatch(body map[string]json.RawMessage) (u core.ProductUpdate, ignored []string) {
	if raw, ok := body["name"]; ok {
		var name string
		if isJSONString(raw) && json.Unmarshal(raw, &name) == nil {
			u.Name = &name
		} else {
			ignored = append(ignored, "name")
		}
	}

	if raw, ok := body["price"]; ok {
		if d, err := jsonNumber(raw); err == nil {
			u.Price = &d
		} else {
			ignored = append(ignored, "price")
		}
	}

	if raw, ok := body["catalog_id"]; ok {
		if d, err := jsonNumber(raw); err == nil && d.IsInteger() {
			id := d.IntPart()
			u.CatalogID = &id
		} else {
			ignored = append(ignored, "catalog_id")
		}
	}

	return u, ignored
}

func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

// jsonNumber parses raw only when it is a JSON number literal.
func jsonNumber(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return decimal.Decimal{}, fmt.Errorf("not a JSON number: %s", raw)
	}
	return decimal.NewFromString(string(raw))
}
