package handlers

import (
	"net/http"
	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/services"
)

type ShiftHandler struct {
	Dispatcher *services.Dispatcher
}

func (h *ShiftHandler) Open(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.OpenShiftRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	shift, err := h.Dispatcher.OpenShift(r.Context(), p.Login, req.VehicleID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewShiftResponse(shift))
}

func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	shift, err := h.Dispatcher.CloseShift(r.Context(), p.Login)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewShiftResponse(shift))
}

// Current returns {"shift": null} when the driver is off duty.
func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	shift, open, err := h.Dispatcher.CurrentShift(r.Context(), p.Login)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var res dto.CurrentShiftResponse
	if open {
		s := dto.NewShiftResponse(shift)
		res.Shift = &s
	}
	writeJSON(w, r, http.StatusOK, res)
}
