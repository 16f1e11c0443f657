// Package server exposes the calculator, markup resolution, pricing-grid
// validation and saved quotes over HTTP.
package server

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/piwi3910/DrapeCalc/internal/logger"
	"github.com/piwi3910/DrapeCalc/internal/project"
	"github.com/piwi3910/DrapeCalc/internal/store"
)

// maxRecentQuotes bounds AppConfig.RecentQuotes.
const maxRecentQuotes = 20

// Server holds the loaded workspace and the quote store.
type Server struct {
	mu     sync.RWMutex
	ws     *project.Workspace
	quotes *store.Quotes
	log    *logger.Logger
	router chi.Router
}

// New builds a server and its routes. Workspace changes (markup settings,
// imported fabrics, recent quotes) are written back with ws.Save.
func New(ws *project.Workspace, quotes *store.Quotes, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{ws: ws, quotes: quotes, log: log.WithComponent("server")}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.log.HTTPMiddleware)
	r.Use(s.recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate", s.handleCalculate)
		r.Post("/markup/resolve", s.handleResolveMarkup)
		r.Post("/grids/validate", s.handleValidateGrid)

		r.Get("/fabrics", s.handleListFabrics)
		r.Post("/fabrics/import", s.handleImportFabrics)
		r.Delete("/fabrics/{id}", s.handleDeleteFabric)
		r.Get("/fabrics/export.csv", s.handleExportFabricsCSV)
		r.Get("/fabrics/export.xlsx", s.handleExportFabricsExcel)
		r.Get("/headings", s.handleListHeadings)
		r.Get("/linings", s.handleListLinings)
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings/markup", s.handleUpdateMarkupSettings)

		r.Get("/backup", s.handleBackup)
		r.Post("/backup/restore", s.handleRestore)

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", s.handleCreateQuote)
			r.Get("/", s.handleListQuotes)
			r.Get("/{id}", s.handleGetQuote)
			r.Delete("/{id}", s.handleDeleteQuote)
			r.Get("/{id}/pdf", s.handleQuotePDF)
			r.Get("/{id}/labels", s.handleQuoteLabels)
			r.Post("/{id}/offcuts", s.handleStockOffcuts)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// recoverer turns a handler panic into a 500 and logs it, so a defect in
// one request never takes the process down.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.Error("panic in handler",
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
