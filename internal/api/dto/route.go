package dto

import (
	"time"
	"waste-dispatch-service/internal/domain"
)

type GenerateRouteRequest struct {
	PlannedDate *string `json:"planned_date" validate:"omitempty,datetime=2006-01-02"`
}

// Full plan of a manually created or edited route.
type RouteRequest struct {
	PlannedDate    string     `json:"planned_date" validate:"required,datetime=2006-01-02"`
	DriverID       *int64     `json:"driver_id" validate:"omitempty,gt=0"`
	VehicleID      *int64     `json:"vehicle_id" validate:"omitempty,gt=0"`
	PlannedStartAt *time.Time `json:"planned_start_at"`
	PlannedEndAt   *time.Time `json:"planned_end_at"`
}

type AssignRouteRequest struct {
	DriverID       *int64     `json:"driver_id" validate:"omitempty,gt=0"`
	VehicleID      *int64     `json:"vehicle_id" validate:"omitempty,gt=0"`
	PlannedStartAt *time.Time `json:"planned_start_at"`
	PlannedEndAt   *time.Time `json:"planned_end_at"`
}

type StopResponse struct {
	ID               int64      `json:"id"`
	SeqNo            int        `json:"seq_no"`
	PointID          *int64     `json:"point_id,omitempty"`
	Address          *string    `json:"address,omitempty"`
	TimeFrom         *time.Time `json:"time_from"`
	TimeTo           *time.Time `json:"time_to"`
	ExpectedCapacity *int       `json:"expected_capacity"`
	ActualCapacity   *int       `json:"actual_capacity"`
	Status           string     `json:"status"`
	Note             *string    `json:"note"`
}

type RouteResponse struct {
	ID             int64          `json:"id"`
	PlannedDate    string         `json:"planned_date"`
	Status         string         `json:"status"`
	DriverID       *int64         `json:"driver_id"`
	VehicleID      *int64         `json:"vehicle_id"`
	ShiftID        *int64         `json:"shift_id"`
	PlannedStartAt *time.Time     `json:"planned_start_at"`
	PlannedEndAt   *time.Time     `json:"planned_end_at"`
	StartedAt      *time.Time     `json:"started_at"`
	FinishedAt     *time.Time     `json:"finished_at"`
	CreatedAt      time.Time      `json:"created_at"`
	Stops          []StopResponse `json:"stops"`
}

type ListRouteResponse struct {
	Routes []RouteResponse `json:"routes"`
}

func NewStopResponse(s domain.Stop) StopResponse {
	return StopResponse{
		ID:               s.ID,
		SeqNo:            s.SeqNo,
		PointID:          s.PointID,
		Address:          s.Address,
		TimeFrom:         s.TimeFrom,
		TimeTo:           s.TimeTo,
		ExpectedCapacity: s.ExpectedCapacity,
		ActualCapacity:   s.ActualCapacity,
		Status:           string(s.Status),
		Note:             s.Note,
	}
}

func NewRouteResponse(r domain.Route) RouteResponse {
	stops := make([]StopResponse, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, NewStopResponse(s))
	}

	return RouteResponse{
		ID:             r.ID,
		PlannedDate:    r.PlannedDate.Format("2006-01-02"),
		Status:         string(r.Status),
		DriverID:       r.DriverID,
		VehicleID:      r.VehicleID,
		ShiftID:        r.ShiftID,
		PlannedStartAt: r.PlannedStartAt,
		PlannedEndAt:   r.PlannedEndAt,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		CreatedAt:      r.CreatedAt,
		Stops:          stops,
	}
}

func NewListRouteResponse(routes []domain.Route) ListRouteResponse {
	res := ListRouteResponse{Routes: make([]RouteResponse, 0, len(routes))}
	for _, r := range routes {
		res.Routes = append(res.Routes, NewRouteResponse(r))
	}
	return res
}
