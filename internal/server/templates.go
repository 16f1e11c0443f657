package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

type templateRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Rules       model.TemplateRules `json:"calculation_rules"`
	HeadingIDs  []string            `json:"heading_ids,omitempty"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.ws.Templates.Templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tmpl := model.NewProductTemplate(req.Name, req.Description, req.Rules, req.HeadingIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range req.HeadingIDs {
		if s.ws.Library.FindHeadingByID(id) == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown heading %q", id), Field: "heading_ids"})
			return
		}
	}

	var invalid *model.InvalidInputError
	err := s.ws.Templates.Add(tmpl)
	switch {
	case errors.Is(err, model.ErrDuplicateTemplate):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Field: "name"})
		return
	case errors.Is(err, model.ErrTemplateNameRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "name"})
		return
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: invalid.Field})
		return
	case err != nil:
		s.log.Error("failed to add template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add template")
		return
	}

	if err := s.ws.Save(); err != nil {
		s.ws.Templates.Remove(tmpl.ID)
		s.log.Error("failed to save templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save templates")
		return
	}
	s.log.Info("template added", "id", tmpl.ID, "name", req.Name)
	writeJSON(w, http.StatusCreated, s.ws.Templates.FindByID(tmpl.ID))
}

// handleDeleteTemplate removes a template unless saved quotes were made with it.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ws.Templates.FindByID(id) == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("template %s not found", id))
		return
	}
	n, err := s.quotes.CountByTemplate(r.Context(), id)
	if err != nil {
		s.log.Error("failed to count template quotes", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check template usage")
		return
	}
	if n > 0 {
		writeError(w, http.StatusConflict, fmt.Sprintf("template %s is used by %d saved quotes", id, n))
		return
	}

	s.ws.Templates.Remove(id)
	if err := s.ws.Save(); err != nil {
		s.log.Error("failed to save templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save templates")
		return
	}
	s.log.Info("template removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
