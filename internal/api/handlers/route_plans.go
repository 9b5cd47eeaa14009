package handlers

import (
	"net/http"
	"time"
	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/services"
)

func routeInput(w http.ResponseWriter, r *http.Request) (services.RouteInput, bool) {
	var req dto.RouteRequest
	if !decodeJSON(w, r, &req, false) {
		return services.RouteInput{}, false
	}

	date, err := time.Parse(time.DateOnly, req.PlannedDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "planned_date must be YYYY-MM-DD")
		return services.RouteInput{}, false
	}
	return services.RouteInput{
		PlannedDate:  date,
		DriverID:     req.DriverID,
		VehicleID:    req.VehicleID,
		PlannedStart: req.PlannedStartAt,
		PlannedEnd:   req.PlannedEndAt,
	}, true
}

func stopInput(w http.ResponseWriter, r *http.Request) (services.StopInput, bool) {
	var req dto.StopPlanRequest
	if !decodeJSON(w, r, &req, false) {
		return services.StopInput{}, false
	}
	return services.StopInput{
		PointID:          req.PointID,
		Address:          req.Address,
		TimeFrom:         req.TimeFrom,
		TimeTo:           req.TimeTo,
		ExpectedCapacity: req.ExpectedCapacity,
		Note:             req.Note,
	}, true
}

// Create handles POST /api/routes.
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := routeInput(w, r)
	if !ok {
		return
	}

	route, err := h.Dispatcher.CreateRoute(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	in, ok := routeInput(w, r)
	if !ok {
		return
	}

	route, err := h.Dispatcher.UpdateRoute(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	in, ok := stopInput(w, r)
	if !ok {
		return
	}

	route, err := h.Dispatcher.AddStop(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewRouteResponse(route))
}

func (h *RouteHandler) EditStop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stopID, ok := pathID(w, r, "stopId")
	if !ok {
		return
	}
	in, ok := stopInput(w, r)
	if !ok {
		return
	}

	route, err := h.Dispatcher.EditStop(r.Context(), id, stopID, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

// RemoveStop returns the renumbered route.
func (h *RouteHandler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stopID, ok := pathID(w, r, "stopId")
	if !ok {
		return
	}

	route, err := h.Dispatcher.RemoveStop(r.Context(), id, stopID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}
