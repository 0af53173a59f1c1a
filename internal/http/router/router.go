package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"delivery-orchestrator/internal/http/handlers"
	obs "delivery-orchestrator/internal/http/middleware"
	"delivery-orchestrator/internal/logx"
)

// Deps are the handlers and middleware of the ops server. Orders and Metrics are optional.
type Deps struct {
	Base        *handlers.Handlers
	Orders      *handlers.OrderHandler
	Metrics     http.Handler
	HTTPMetrics *obs.HTTPMetrics
	Logger      logx.Logger
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if d.HTTPMetrics != nil && d.Logger != nil {
		r.Use(obs.Observability(d.Logger, d.HTTPMetrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Orders != nil {
		r.Get("/orders/{id}", d.Orders.GetByID)
	}
	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	return r
}
