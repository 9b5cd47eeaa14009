package dto

import (
	"time"
	"waste-dispatch-service/internal/domain"
)

type OpenShiftRequest struct {
	VehicleID *int64 `json:"vehicle_id" validate:"omitempty,gt=0"`
}

type ShiftResponse struct {
	ID        int64      `json:"id"`
	DriverID  int64      `json:"driver_id"`
	VehicleID *int64     `json:"vehicle_id"`
	OpenedAt  time.Time  `json:"opened_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	Status    string     `json:"status"`
}

type CurrentShiftResponse struct {
	Shift *ShiftResponse `json:"shift"`
}

func NewShiftResponse(s domain.Shift) ShiftResponse {
	return ShiftResponse{
		ID:        s.ID,
		DriverID:  s.DriverID,
		VehicleID: s.VehicleID,
		OpenedAt:  s.OpenedAt,
		ClosedAt:  s.ClosedAt,
		Status:    string(s.Status),
	}
}
