package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 16 << 20
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeCalcError maps calculation errors to statuses: a missing choice is
// 422, bad numbers are 400 and anything else is a defect.
func (s *Server) writeCalcError(w http.ResponseWriter, err error) {
	var missing *model.MissingSelectionError
	var invalid *model.InvalidInputError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: missing.Field})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: invalid.Field})
	default:
		s.log.Error("calculation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "calculation failed")
	}
}
