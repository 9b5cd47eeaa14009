package api

import (
	"log/slog"
	"net/http"
	"waste-dispatch-service/internal/adapters/metrics"
	"waste-dispatch-service/internal/api/handlers"
	"waste-dispatch-service/internal/auth"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/services"
)

type Deps struct {
	Dispatcher *services.Dispatcher
	Tokens     *auth.TokenService
	Logger     *slog.Logger
	// Optional.
	DB             handlers.Pinger
	HTTPMetrics    *metrics.HTTPCollector
	MetricsHandler http.Handler
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	health := &handlers.HealthHandler{DB: deps.DB}
	rh := &handlers.RouteHandler{Dispatcher: deps.Dispatcher}
	sh := &handlers.ShiftHandler{Dispatcher: deps.Dispatcher}
	ih := &handlers.IncidentHandler{Dispatcher: deps.Dispatcher}

	admin := requireRole(deps.Tokens, domain.RoleAdmin)
	driver := requireRole(deps.Tokens, domain.RoleDriver)
	staff := requireRole(deps.Tokens, domain.RoleAdmin, domain.RoleDriver)

	mux.HandleFunc("GET /health", health.Health)
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	mux.Handle("POST /api/routes/auto-generate", admin(rh.Generate))
	mux.Handle("POST /api/routes", admin(rh.Create))
	mux.Handle("GET /api/routes", admin(rh.List))
	mux.Handle("GET /api/routes/{id}", admin(rh.Get))
	mux.Handle("PUT /api/routes/{id}", admin(rh.Update))
	mux.Handle("POST /api/routes/{id}/planned-stops", admin(rh.AddStop))
	mux.Handle("PUT /api/routes/{id}/planned-stops/{stopId}", admin(rh.EditStop))
	mux.Handle("DELETE /api/routes/{id}/planned-stops/{stopId}", admin(rh.RemoveStop))
	mux.Handle("PUT /api/routes/{id}/assign", admin(rh.Assign))
	mux.Handle("POST /api/routes/{id}/cancel", admin(rh.Cancel))
	mux.Handle("DELETE /api/routes/{id}", admin(rh.Delete))
	mux.Handle("GET /api/incidents", admin(ih.List))
	mux.Handle("POST /api/incidents/{id}/resolve", admin(ih.Resolve))

	mux.Handle("GET /api/routes/my", driver(rh.Mine))
	mux.Handle("GET /api/routes/{id}/my", driver(rh.GetMine))
	mux.Handle("PUT /api/routes/{id}/start", driver(rh.Start))
	mux.Handle("PUT /api/routes/{id}/accept", driver(rh.Start))
	mux.Handle("PUT /api/routes/{id}/finish", driver(rh.Finish))
	mux.Handle("PUT /api/routes/{id}/stops/{stopId}", driver(rh.UpdateStop))
	mux.Handle("POST /api/routes/{id}/stops/{stopId}/events", driver(rh.RecordStopEvent))
	mux.Handle("POST /api/incidents", driver(ih.Report))
	mux.Handle("GET /api/shifts/current", driver(sh.Current))
	mux.Handle("POST /api/shifts/open", driver(sh.Open))
	mux.Handle("POST /api/shifts/close", driver(sh.Close))

	mux.Handle("GET /api/stops/{stopId}/events", staff(rh.ListStopEvents))

	return requestIDMiddleware(loggingMiddleware(logger, deps.HTTPMetrics, mux))
}
