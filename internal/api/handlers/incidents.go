package handlers

import (
	"net/http"
	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/services"
)

type IncidentHandler struct {
	Dispatcher *services.Dispatcher
}

func (h *IncidentHandler) Report(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.ReportIncidentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	incident, err := h.Dispatcher.ReportIncident(r.Context(), req.RouteID, req.StopID, p.Login, services.IncidentInput{
		Type:        domain.IncidentType(req.Type),
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewIncidentResponse(incident))
}

// List handles GET /api/incidents; ?unresolved=true hides resolved ones.
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	unresolved := r.URL.Query().Get("unresolved") == "true"

	list, err := h.Dispatcher.ListIncidents(r.Context(), unresolved)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListIncidentResponse{Incidents: make([]dto.IncidentResponse, 0, len(list))}
	for _, i := range list {
		res.Incidents = append(res.Incidents, dto.NewIncidentResponse(i))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *IncidentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	incident, err := h.Dispatcher.ResolveIncident(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewIncidentResponse(incident))
}
