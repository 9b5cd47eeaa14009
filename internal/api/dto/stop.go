package dto

import (
	"time"
	"waste-dispatch-service/internal/domain"
)

type UpdateStopRequest struct {
	Status         string  `json:"status" validate:"required,oneof=planned enroute arrived loading unloading done skipped unavailable"`
	ActualCapacity *int    `json:"actual_capacity" validate:"omitempty,gte=0"`
	Note           *string `json:"note" validate:"omitempty,max=2000"`
}

// Plan of a stop added or edited by an admin. Exactly one of point_id and
// address is required.
type StopPlanRequest struct {
	PointID          *int64     `json:"point_id" validate:"omitempty,gt=0"`
	Address          *string    `json:"address" validate:"omitempty,max=500"`
	TimeFrom         *time.Time `json:"time_from"`
	TimeTo           *time.Time `json:"time_to"`
	ExpectedCapacity *int       `json:"expected_capacity" validate:"omitempty,gte=0"`
	Note             *string    `json:"note" validate:"omitempty,max=1000"`
}

type StopEventRequest struct {
	Type     string  `json:"type" validate:"required,oneof=start arrived loading unloading done skipped unavailable comment"`
	PhotoURL *string `json:"photo_url" validate:"omitempty,max=1024"`
	Comment  *string `json:"comment" validate:"omitempty,max=2000"`
}

type StopEventResponse struct {
	ID        int64     `json:"id"`
	StopID    int64     `json:"stop_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	PhotoURL  *string   `json:"photo_url"`
	Comment   *string   `json:"comment"`
}

type ListStopEventResponse struct {
	Events []StopEventResponse `json:"events"`
}

func NewStopEventResponse(e domain.StopEvent) StopEventResponse {
	return StopEventResponse{
		ID:        e.ID,
		StopID:    e.StopID,
		Type:      string(e.Type),
		CreatedAt: e.CreatedAt,
		PhotoURL:  e.PhotoURL,
		Comment:   e.Comment,
	}
}
