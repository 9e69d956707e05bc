package ui

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gosurv/domain/dataset"
	"gosurv/internal/errors"
	"gosurv/internal/metrics"
	"gosurv/internal/profiling"
	"gosurv/internal/report"
	"gosurv/ports"
)

// App serves survival analyses of one dataset over HTTP
type App struct {
	router   *chi.Mux
	config   Config
	table    *dataset.Table
	library  ports.SurvivalLibrary
	plotter  ports.Plotter
	profiler *profiling.DistributionAnalyzer
	reports  *report.Builder
	registry *prometheus.Registry
}

// Config holds UI application configuration
type Config struct {
	Port        string
	DurationCol string
	EventCol    string
	PlotDir     string // directory served under /plots/
	Timeline    []float64
}

// NewApp creates a new UI application over table
func NewApp(config Config, table *dataset.Table, library ports.SurvivalLibrary, plotter ports.Plotter) (*App, error) {
	if table == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	if config.Port == "" {
		config.Port = "8080"
	}

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return nil, errors.Wrap(err, "failed to register metrics")
	}
	metrics.SetDatasetRows(table.NumRows())

	app := &App{
		router:   chi.NewRouter(),
		config:   config,
		table:    table,
		library:  library,
		plotter:  plotter,
		profiler: profiling.NewDistributionAnalyzer(),
		reports:  report.NewBuilder(library, plotter, config.Timeline),
		registry: registry,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	// Analysis API
	a.router.Route("/api", func(r chi.Router) {
		r.Get("/describe", a.handleDescribe)
		r.Post("/km", a.handleKaplanMeier)
		r.Post("/logrank", a.handleLogRank)
		r.Post("/cox", a.handleCox)
		r.Post("/aalen", a.handleAalen)
	})

	a.router.Get("/report", a.handleReport)
	a.router.Get("/plots/{name}", a.handlePlot)
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.config.Port
	log.Printf("[UI] Serving %d rows on %s", a.table.NumRows(), addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
