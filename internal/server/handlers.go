package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/piwi3910/DrapeCalc/internal/grid"
	"github.com/piwi3910/DrapeCalc/internal/importer"
	"github.com/piwi3910/DrapeCalc/internal/markup"
	"github.com/piwi3910/DrapeCalc/internal/model"
)

type calcRequest struct {
	RailWidth   float64 `json:"rail_width"`
	CurtainDrop float64 `json:"curtain_drop"`
	FabricID    string  `json:"fabric_id"`
	// Fabric, when set, is used instead of a library lookup.
	Fabric         *model.FabricSelection `json:"fabric,omitempty"`
	HeadingID      string                 `json:"heading_id"`
	Lining         string                 `json:"lining"`
	TemplateID     string                 `json:"template_id"`
	MarkupOverride *float64               `json:"markup_override,omitempty"`
}

type calcResponse struct {
	Result model.CalculationResult `json:"result"`
	model.Selling
}

// buildInput looks the request's selections up in the library. Unknown
// template or heading IDs leave the selection nil so Calculate reports it.
func (s *Server) buildInput(req calcRequest) (model.CalculationInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in := model.CalculationInput{
		RailWidth:   req.RailWidth,
		CurtainDrop: req.CurtainDrop,
		Config:      s.ws.Config,
	}

	switch {
	case req.Fabric != nil:
		in.Fabric = *req.Fabric
	case req.FabricID != "":
		f := s.ws.Library.FindFabricByID(req.FabricID)
		if f == nil {
			return in, &model.MissingSelectionError{Field: "fabric"}
		}
		in.Fabric = *f
	default:
		return in, &model.MissingSelectionError{Field: "fabric"}
	}

	if h := s.ws.Library.FindHeadingByID(req.HeadingID); h != nil {
		heading := *h
		in.Heading = &heading
	}
	if t := s.ws.Templates.FindByID(req.TemplateID); t != nil {
		tmpl := *t
		in.Template = &tmpl
	}

	lining, ok := s.ws.Library.FindLining(req.Lining)
	if !ok {
		return in, &model.InvalidInputError{Field: "lining", Reason: fmt.Sprintf("unknown lining %q", req.Lining)}
	}
	in.Lining = lining
	return in, nil
}

// calculate runs the pipeline and prices the result.
func (s *Server) calculate(req calcRequest) (model.CalculationInput, calcResponse, error) {
	in, err := s.buildInput(req)
	if err != nil {
		return in, calcResponse{}, err
	}
	res, err := model.Calculate(in)
	if err != nil {
		return in, calcResponse{}, err
	}

	s.mu.RLock()
	settings := s.ws.Config.Markup
	s.mu.RUnlock()

	ctx := model.MarkupContext(in.Fabric, req.MarkupOverride)
	ctx.CostPrice = res.Costs.Total
	sell := res.Sell(markup.Resolve(ctx, settings))
	return in, calcResponse{Result: res, Selling: sell}, nil
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calcRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, resp, err := s.calculate(req)
	if err != nil {
		s.writeCalcError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type markupRequest struct {
	markup.Context
	// Cost, when set, is marked up in the response.
	Cost *float64 `json:"cost,omitempty"`
}

type markupResponse struct {
	Markup       markup.Resolved `json:"markup"`
	SellingPrice *float64        `json:"selling_price,omitempty"`
}

func (s *Server) handleResolveMarkup(w http.ResponseWriter, r *http.Request) {
	var req markupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.RLock()
	resolved := markup.Resolve(req.Context, s.ws.Config.Markup)
	s.mu.RUnlock()

	resp := markupResponse{Markup: resolved}
	if req.Cost != nil {
		sell := markup.ApplyMarkup(*req.Cost, resolved.Percentage)
		resp.SellingPrice = &sell
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateGrid(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	writeJSON(w, http.StatusOK, grid.ValidatePricingGrid(raw))
}

func (s *Server) handleListFabrics(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.ws.Library.Fabrics)
}

func (s *Server) handleListHeadings(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.ws.Library.Headings)
}

func (s *Server) handleListLinings(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.ws.Library.Linings)
}

type importResponse struct {
	Added    int      `json:"added"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// handleImportFabrics merges a CSV or xlsx body into the fabric library.
func (s *Server) handleImportFabrics(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	res := importer.Import(data)
	if len(res.Fabrics) == 0 {
		writeJSON(w, http.StatusBadRequest, importResponse{Errors: res.Errors, Warnings: res.Warnings})
		return
	}

	s.mu.Lock()
	added, updated := s.ws.Library.MergeFabrics(res.Fabrics)
	saveErr := s.ws.Save()
	s.mu.Unlock()
	if saveErr != nil {
		s.log.Error("failed to save library", "error", saveErr)
		writeError(w, http.StatusInternalServerError, "failed to save library")
		return
	}

	s.log.Info("imported fabrics", "added", added, "updated", updated, "errors", len(res.Errors))
	writeJSON(w, http.StatusOK, importResponse{Added: added, Updated: updated, Errors: res.Errors, Warnings: res.Warnings})
}

func (s *Server) handleDeleteFabric(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	removed := s.ws.Library.RemoveFabric(id)
	var err error
	if removed {
		err = s.ws.Save()
	}
	s.mu.Unlock()
	if !removed {
		writeError(w, http.StatusNotFound, fmt.Sprintf("fabric %s not found", id))
		return
	}
	if err != nil {
		s.log.Error("failed to save library", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save library")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportFabricsCSV(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	fabrics := append([]model.FabricSelection(nil), s.ws.Library.Fabrics...)
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := importer.ExportCSV(&buf, fabrics); err != nil {
		s.log.Error("fabric CSV export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="fabrics.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportFabricsExcel(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	fabrics := append([]model.FabricSelection(nil), s.ws.Library.Fabrics...)
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := importer.ExportExcel(&buf, fabrics); err != nil {
		s.log.Error("fabric Excel export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="fabrics.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.ws.Config)
}

func (s *Server) handleUpdateMarkupSettings(w http.ResponseWriter, r *http.Request) {
	var settings markup.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSettings(settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if settings.CategoryMarkups == nil {
		settings.CategoryMarkups = map[string]float64{}
	}
	if settings.SubcategoryMarkups == nil {
		settings.SubcategoryMarkups = map[string]float64{}
	}

	s.mu.Lock()
	s.ws.Config.Markup = settings
	err := s.ws.Save()
	s.mu.Unlock()
	if err != nil {
		s.log.Error("failed to save markup settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func validateSettings(s markup.Settings) error {
	for name, v := range map[string]float64{
		"default_markup_percentage":  s.DefaultMarkupPercent,
		"labor_markup_percentage":    s.LaborMarkupPercent,
		"material_markup_percentage": s.MaterialMarkupPercent,
		"minimum_markup_percentage":  s.MinimumMarkupPercent,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	for k, v := range s.CategoryMarkups {
		if v < 0 {
			return fmt.Errorf("category markup %q must not be negative", k)
		}
	}
	for k, v := range s.SubcategoryMarkups {
		if v < 0 {
			return fmt.Errorf("subcategory markup %q must not be negative", k)
		}
	}
	return nil
}
