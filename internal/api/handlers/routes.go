package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"
	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
	"waste-dispatch-service/internal/services"
)

type RouteHandler struct {
	Dispatcher *services.Dispatcher
}

// Generate handles POST /api/routes/auto-generate.
func (h *RouteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateRouteRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	var date *time.Time
	if req.PlannedDate != nil {
		d, err := time.Parse(time.DateOnly, *req.PlannedDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "planned_date must be YYYY-MM-DD")
			return
		}
		date = &d
	}

	route, err := h.Dispatcher.GenerateRoute(r.Context(), date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewRouteResponse(route))
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	var f ports.RouteFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status := domain.RouteStatus(s)
		if !status.Valid() {
			writeError(w, r, http.StatusBadRequest, "unknown status")
			return
		}
		f.Status = &status
	}
	if s := q.Get("driver_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid driver_id")
			return
		}
		f.DriverID = &id
	}
	if s := q.Get("planned_date"); s != "" {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "planned_date must be YYYY-MM-DD")
			return
		}
		f.PlannedDate = &d
	}

	routes, err := h.Dispatcher.ListRoutes(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewListRouteResponse(routes))
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	route, err := h.Dispatcher.GetRoute(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.AssignRouteRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	route, err := h.Dispatcher.AssignDriver(r.Context(), id, services.AssignInput{
		DriverID:     req.DriverID,
		VehicleID:    req.VehicleID,
		PlannedStart: req.PlannedStartAt,
		PlannedEnd:   req.PlannedEndAt,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	route, err := h.Dispatcher.CancelRoute(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Dispatcher.DeleteRoute(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mine handles GET /api/routes/my with an optional ?status= filter.
func (h *RouteHandler) Mine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var status *domain.RouteStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.RouteStatus(s)
		if !st.Valid() {
			writeError(w, r, http.StatusBadRequest, "unknown status")
			return
		}
		status = &st
	}

	routes, err := h.Dispatcher.ListDriverRoutes(r.Context(), p.Login, status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewListRouteResponse(routes))
}

func (h *RouteHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	route, err := h.Dispatcher.GetDriverRoute(r.Context(), id, p.Login)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.driverTransition(w, r, h.Dispatcher.StartRoute)
}

func (h *RouteHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.driverTransition(w, r, h.Dispatcher.FinishRoute)
}

func (h *RouteHandler) driverTransition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, routeID int64, login string) (domain.Route, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	route, err := apply(r.Context(), id, p.Login)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

// UpdateStop handles PUT /api/routes/{id}/stops/{stopId} and returns the whole route.
func (h *RouteHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	routeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stopID, ok := pathID(w, r, "stopId")
	if !ok {
		return
	}
	var req dto.UpdateStopRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	route, err := h.Dispatcher.UpdateStop(r.Context(), routeID, stopID, p.Login, services.StopUpdate{
		Status:         domain.StopStatus(req.Status),
		ActualCapacity: req.ActualCapacity,
		Note:           req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) RecordStopEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	routeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stopID, ok := pathID(w, r, "stopId")
	if !ok {
		return
	}
	var req dto.StopEventRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	ev, err := h.Dispatcher.RecordStopEvent(r.Context(), routeID, stopID, p.Login, services.StopEventInput{
		Type:     domain.StopEventType(req.Type),
		PhotoURL: req.PhotoURL,
		Comment:  req.Comment,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewStopEventResponse(ev))
}

func (h *RouteHandler) ListStopEvents(w http.ResponseWriter, r *http.Request) {
	stopID, ok := pathID(w, r, "stopId")
	if !ok {
		return
	}

	events, err := h.Dispatcher.ListStopEvents(r.Context(), stopID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListStopEventResponse{Events: make([]dto.StopEventResponse, 0, len(events))}
	for _, e := range events {
		res.Events = append(res.Events, dto.NewStopEventResponse(e))
	}
	writeJSON(w, r, http.StatusOK, res)
}
