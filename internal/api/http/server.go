package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
	"vitals-monitor/internal/infrastructure/chart"
	"vitals-monitor/internal/infrastructure/panel"
)

// Logger defines the logging behaviour required by the HTTP transport.
type Logger interface {
	Printf(ctx context.Context, format string, v ...any)
}

// ChartStream publishes chart frames and their presentation metadata.
type ChartStream interface {
	Subscribe() (<-chan domain.ChartFrame, func())
	Style(chart string) (chart.Style, bool)
}

// RegionSource exposes the diagnosis display regions.
type RegionSource interface {
	Region(name string) (panel.Region, bool)
}

// Deps are the collaborators of the HTTP transport. Only Service is required.
type Deps struct {
	Service domain.MonitorService
	Charts  ChartStream
	Regions RegionSource
	Logger  Logger
}

// Server exposes the HTTP transport for the monitor.
type Server struct {
	router chi.Router
}

// NewServer constructs a chi based HTTP server that forwards requests to the monitor service.
func NewServer(deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(infra.HTTPMiddleware)

	handler := &handler{
		service: deps.Service,
		charts:  deps.Charts,
		regions: deps.Regions,
		logger:  deps.Logger,
	}
	registerRoutes(router, handler)

	return &Server{router: router}
}

// Router returns the configured chi router for reuse in tests or external HTTP servers.
func (s *Server) Router() http.Handler {
	return s.router
}

// ServeHTTP allows Server to satisfy the http.Handler interface directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
