package web

import (
	"net/http"
)

type catalogRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// handleListCatalogs returns catalogs newest first with their product counts.
// Query: limit, offset.
func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, "limit")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	items, err := s.service.ListCatalogs(r.Context(), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginated(items))
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.service.GetCatalog(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCatalog(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.service.CreateCatalog(r.Context(), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleUpdateCatalog replaces the catalog's name.
func (s *Server) handleUpdateCatalog(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req catalogRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.service.UpdateCatalog(r.Context(), id, req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCatalog deletes a catalog and returns it. Catalogs that still
// have products are refused with 409.
func (s *Server) handleDeleteCatalog(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.service.DeleteCatalog(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
