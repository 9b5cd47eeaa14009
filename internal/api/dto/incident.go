package dto

import (
	"time"
	"waste-dispatch-service/internal/domain"
)

type ReportIncidentRequest struct {
	RouteID     int64   `json:"route_id" validate:"gt=0"`
	StopID      int64   `json:"stop_id" validate:"gt=0"`
	Type        string  `json:"type" validate:"required,oneof=access_denied traffic vehicle_issue overload other"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	PhotoURL    *string `json:"photo_url" validate:"omitempty,max=1024"`
}

type IncidentResponse struct {
	ID          int64      `json:"id"`
	StopID      int64      `json:"stop_id"`
	Type        string     `json:"type"`
	Description *string    `json:"description"`
	PhotoURL    *string    `json:"photo_url"`
	CreatedBy   *int64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

type ListIncidentResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
}

func NewIncidentResponse(i domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:          i.ID,
		StopID:      i.StopID,
		Type:        string(i.Type),
		Description: i.Description,
		PhotoURL:    i.PhotoURL,
		CreatedBy:   i.CreatedBy,
		CreatedAt:   i.CreatedAt,
		Resolved:    i.Resolved,
		ResolvedAt:  i.ResolvedAt,
	}
}
