// Package server exposes the HTTP surface of the export service: the
// upload endpoint, health, diagnostics, and the job event feed.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"indesign-pdf-service/internal/config"
	"indesign-pdf-service/internal/convert"
	"indesign-pdf-service/internal/diagnostics"
	"indesign-pdf-service/internal/jobs"
)

// documentExporter isolates the conversion pipeline behind an interface.
type documentExporter interface {
	Export(ctx context.Context, req convert.Request) (convert.Result, error)
}

// App wires configuration, conversion, jobs, and diagnostics behind HTTP.
type App struct {
	cfg      *config.Config
	logger   zerolog.Logger
	exporter documentExporter
	checker  *diagnostics.Checker
	jobs     *jobs.Tracker
	events   *jobs.EventBus
}

// New builds the application with its collaborators.
func New(cfg *config.Config, logger zerolog.Logger, exporter documentExporter, checker *diagnostics.Checker) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		exporter: exporter,
		checker:  checker,
		jobs:     jobs.NewTracker(50),
		events:   jobs.NewEventBus(1000),
	}
}

// Router creates the HTTP router with all routes configured. No global
// request timeout is installed: conversions are bounded by the runner's
// own export timeout.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", a.handleConvert)
		r.Get("/diagnostics", a.handleDiagnostics)
		r.Get("/jobs/current", a.handleCurrentJobs)
		r.Get("/jobs/events", a.handleJobEvents)
	})

	return r
}
