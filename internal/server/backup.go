package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/piwi3910/DrapeCalc/internal/project"
)

// handleBackup downloads settings, library and templates as one JSON file.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	backup := s.ws.Backup()
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := project.WriteBackup(&buf, backup); err != nil {
		s.log.Error("backup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	filename := fmt.Sprintf("drapecalc-backup-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(buf.Bytes())
}

// handleRestore replaces the workspace with an uploaded backup.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	backup, err := project.ReadBackup(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.ws.Restore(backup)
	err = s.ws.Save()
	fabrics, templates := len(s.ws.Library.Fabrics), len(s.ws.Templates.Templates)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("failed to save restored workspace", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save workspace")
		return
	}

	s.log.Info("workspace restored", "version", backup.Version, "created_at", backup.CreatedAt,
		"fabrics", fabrics, "templates", templates)
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   backup.Version,
		"fabrics":   fabrics,
		"templates": templates,
	})
}
