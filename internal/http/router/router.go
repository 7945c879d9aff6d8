package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/http/handlers"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/http/middleware"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/http/middleware/ratelimit"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	h *handlers.Handlers,
	dispatch *handlers.DispatchHandler,
	assignments *handlers.AssignmentHandler,
	couriers *handlers.CourierHandler,
	logger logx.Logger,
	rl *ratelimit.Middleware,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observability(logger))
	if rl != nil {
		r.Use(rl.Handler())
	}
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/ping", h.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(h.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders/{id}", func(r chi.Router) {
			r.Get("/", dispatch.GetOrder)
			r.Post("/claim", dispatch.Claim)
			r.Delete("/dispatch", dispatch.Cancel)
		})
		r.Patch("/assignments/{id}/status", assignments.UpdateStatus)
		r.Route("/couriers/{id}", func(r chi.Router) {
			r.Get("/", couriers.GetByID)
			r.Get("/assignments", couriers.Assignments)
			r.Patch("/availability", couriers.UpdateAvailability)
		})
		r.Get("/dispatch/stats", dispatch.Stats)
	})

	r.NotFound(http.HandlerFunc(h.NotFound))

	return r
}
