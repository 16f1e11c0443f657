package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/piwi3910/DrapeCalc/internal/export"
	"github.com/piwi3910/DrapeCalc/internal/model"
	"github.com/piwi3910/DrapeCalc/internal/store"
)

type quoteRequest struct {
	calcRequest
	Title    string `json:"title"`
	Customer string `json:"customer"`
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, resp, err := s.calculate(req.calcRequest)
	if err != nil {
		s.writeCalcError(w, err)
		return
	}

	s.mu.RLock()
	currency := s.ws.Config.Currency
	s.mu.RUnlock()

	q := model.NewQuote(req.Title, req.Customer, currency, in, resp.Result, resp.Markup)
	if err := s.quotes.Save(r.Context(), q); err != nil {
		s.log.Error("failed to save quote", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save quote")
		return
	}

	s.mu.Lock()
	s.ws.Config.AddRecentQuote(q.ID, maxRecentQuotes)
	if err := s.ws.Save(); err != nil {
		s.log.Warn("failed to record recent quote", "id", q.ID, "error", err)
	}
	s.mu.Unlock()

	s.log.Info("quote saved", "id", q.ID, "total", q.Result.Costs.Total, "selling_price", q.SellingPrice)
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.quotes.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.log.Error("failed to list quotes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load quotes")
		return
	}
	if quotes == nil {
		quotes = []store.QuoteSummary{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

// loadQuote fetches the {id} quote, writing 404 or 500 on failure.
func (s *Server) loadQuote(w http.ResponseWriter, r *http.Request) (model.Quote, bool) {
	id := chi.URLParam(r, "id")
	q, err := s.quotes.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("quote %s not found", id))
		return q, false
	}
	if err != nil {
		s.log.Error("failed to load quote", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load quote")
		return q, false
	}
	return q, true
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.quotes.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("quote %s not found", id))
		return
	}
	if err != nil {
		s.log.Error("failed to delete quote", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete quote")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuotePDF(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ExportQuotePDF(&buf, q); err != nil {
		s.log.Error("quote PDF failed", "id", q.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render quote")
		return
	}
	writePDF(w, fmt.Sprintf("quote-%s.pdf", q.ID), buf.Bytes())
}

func (s *Server) handleQuoteLabels(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ExportWorkOrderLabels(&buf, q); err != nil {
		s.log.Error("work-order labels failed", "id", q.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render labels")
		return
	}
	writePDF(w, fmt.Sprintf("labels-%s.pdf", q.ID), buf.Bytes())
}

type offcutsResponse struct {
	Added int `json:"added"`
	// Area is the total remnant area in square cm.
	Area    float64                 `json:"area"`
	Fabrics []model.FabricSelection `json:"fabrics"`
}

// handleStockOffcuts adds a saved quote's reusable offcuts to the fabric
// library as remnant fabrics.
func (s *Server) handleStockOffcuts(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	offcuts := q.Result.Offcuts
	if len(offcuts) == 0 {
		writeJSON(w, http.StatusOK, offcutsResponse{Fabrics: []model.FabricSelection{}})
		return
	}

	remnants := make([]model.FabricSelection, len(offcuts))
	for i, o := range offcuts {
		remnants[i] = o.ToFabric(q.Input.Fabric)
	}

	s.mu.Lock()
	added, _ := s.ws.Library.MergeFabrics(remnants)
	err := s.ws.Save()
	s.mu.Unlock()
	if err != nil {
		s.log.Error("failed to save library", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save library")
		return
	}

	area := model.TotalOffcutArea(offcuts)
	s.log.Info("offcuts stocked", "quote", q.ID, "added", added, "area_cm2", area)
	writeJSON(w, http.StatusOK, offcutsResponse{Added: added, Area: area, Fabrics: remnants})
}

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	_, _ = w.Write(data)
}
