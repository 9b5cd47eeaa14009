package domain

import "time"

type RouteStatus string

const (
	RoutePlanned    RouteStatus = "planned"
	RouteInProgress RouteStatus = "in_progress"
	RouteCompleted  RouteStatus = "completed"
	RouteCancelled  RouteStatus = "cancelled"
)

func (s RouteStatus) Valid() bool {
	switch s {
	case RoutePlanned, RouteInProgress, RouteCompleted, RouteCancelled:
		return true
	}
	return false
}

func (s RouteStatus) IsTerminal() bool {
	return s == RouteCompleted || s == RouteCancelled
}

// Represents a planned, sequenced visit plan to one or more collection points.
//
// Status only moves forward: planned -> in_progress -> completed, with cancelled
// reachable from planned or in_progress. Stops is populated only by explicit
// loads; a Route fetched without its stops has a nil slice.
type Route struct {
	ID             int64
	PlannedDate    time.Time
	Status         RouteStatus
	DriverID       *int64
	VehicleID      *int64
	ShiftID        *int64
	PlannedStartAt *time.Time
	PlannedEndAt   *time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
	CreatedAt      time.Time
	Stops          []Stop
}

// NewRoute returns an empty planned route for the given calendar day.
func NewRoute(plannedDate time.Time, now time.Time) *Route {
	y, m, d := plannedDate.Date()
	return &Route{
		PlannedDate: time.Date(y, m, d, 0, 0, 0, 0, plannedDate.Location()),
		Status:      RoutePlanned,
		CreatedAt:   now,
	}
}

// IsDrivenBy reports whether userID is the assigned driver.
func (r *Route) IsDrivenBy(userID int64) bool {
	return r.DriverID != nil && *r.DriverID == userID
}

// Assign sets or clears the driver and schedule. The vehicle changes only when
// one is supplied, so a vehicle inherited from the shift survives reassignment.
// Status is unchanged.
func (r *Route) Assign(driverID, vehicleID *int64, plannedStart, plannedEnd *time.Time) error {
	if r.Status.IsTerminal() {
		return InvalidTransition("route %d is %s and cannot be reassigned", r.ID, r.Status)
	}
	if err := checkSchedule(plannedStart, plannedEnd); err != nil {
		return err
	}

	r.DriverID = driverID
	if vehicleID != nil {
		r.VehicleID = vehicleID
	}
	r.PlannedStartAt = plannedStart
	r.PlannedEndAt = plannedEnd
	return nil
}

// RequireEditable guards manual edits of the route and its stops, which are
// only allowed before execution starts.
func (r *Route) RequireEditable() error {
	if r.Status != RoutePlanned {
		return InvalidTransition("route %d is %s and can no longer be edited", r.ID, r.Status)
	}
	return nil
}

// Reschedule replaces the plan of a planned route: day, driver, vehicle and window.
func (r *Route) Reschedule(plannedDate time.Time, driverID, vehicleID *int64, plannedStart, plannedEnd *time.Time) error {
	if err := r.RequireEditable(); err != nil {
		return err
	}
	if err := checkSchedule(plannedStart, plannedEnd); err != nil {
		return err
	}

	y, m, d := plannedDate.Date()
	r.PlannedDate = time.Date(y, m, d, 0, 0, 0, 0, plannedDate.Location())
	r.DriverID = driverID
	r.VehicleID = vehicleID
	r.PlannedStartAt = plannedStart
	r.PlannedEndAt = plannedEnd
	return nil
}

func checkSchedule(plannedStart, plannedEnd *time.Time) error {
	if plannedStart != nil && plannedEnd != nil && plannedEnd.Before(*plannedStart) {
		return BadRequest("invalid_schedule", "planned end must not be before planned start")
	}
	return nil
}

// HoldsPointLocks reports whether the route still owns the locks on its points.
// Completed routes released them; cancelled ones did unless cancellation keeps locks.
func (r *Route) HoldsPointLocks(unlockOnCancel bool) bool {
	switch r.Status {
	case RoutePlanned, RouteInProgress:
		return true
	case RouteCancelled:
		return !unlockOnCancel
	}
	return false
}

// Start moves the route into execution under the given open shift.
// Re-entry on an in_progress route is allowed and keeps the first shift link.
func (r *Route) Start(shift Shift, now time.Time) error {
	if r.Status != RoutePlanned && r.Status != RouteInProgress {
		return InvalidTransition("route %d is %s and cannot be started", r.ID, r.Status)
	}

	if r.ShiftID == nil {
		id := shift.ID
		r.ShiftID = &id
	}
	if r.VehicleID == nil && shift.VehicleID != nil {
		v := *shift.VehicleID
		r.VehicleID = &v
	}
	if r.StartedAt == nil {
		t := now
		r.StartedAt = &t
	}
	r.Status = RouteInProgress
	return nil
}

// Complete closes an in_progress route. It returns false without error when the
// route is already completed, so explicit and automatic completion never repeat
// side effects.
func (r *Route) Complete(now time.Time) (bool, error) {
	switch r.Status {
	case RouteCompleted:
		return false, nil
	case RouteInProgress:
	default:
		return false, InvalidTransition("route %d is %s and cannot be completed", r.ID, r.Status)
	}

	if r.FinishedAt == nil {
		t := now
		r.FinishedAt = &t
	}
	r.Status = RouteCompleted
	return true, nil
}

// Cancel abandons a planned or in_progress route.
func (r *Route) Cancel() error {
	if r.Status != RoutePlanned && r.Status != RouteInProgress {
		return InvalidTransition("route %d is %s and cannot be cancelled", r.ID, r.Status)
	}
	r.Status = RouteCancelled
	return nil
}

// PointIDs lists the collection points referenced by the loaded stops.
func (r *Route) PointIDs() []int64 {
	ids := make([]int64, 0, len(r.Stops))
	for _, s := range r.Stops {
		if s.PointID != nil {
			ids = append(ids, *s.PointID)
		}
	}
	return ids
}

// AllStopsTerminal reports whether every loaded stop reached done, skipped or
// unavailable. A route without stops is never considered finished by the watcher.
func (r *Route) AllStopsTerminal() bool {
	if len(r.Stops) == 0 {
		return false
	}
	for _, s := range r.Stops {
		if !s.Status.IsTerminal() {
			return false
		}
	}
	return true
}
