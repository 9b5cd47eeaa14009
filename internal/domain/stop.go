package domain

import "time"

type StopStatus string

const (
	StopPlanned     StopStatus = "planned"
	StopEnroute     StopStatus = "enroute"
	StopArrived     StopStatus = "arrived"
	StopLoading     StopStatus = "loading"
	StopUnloading   StopStatus = "unloading"
	StopDone        StopStatus = "done"
	StopSkipped     StopStatus = "skipped"
	StopUnavailable StopStatus = "unavailable"
)

func (s StopStatus) Valid() bool {
	_, ok := stopRank[s]
	return ok
}

func (s StopStatus) IsTerminal() bool {
	return s == StopDone || s == StopSkipped || s == StopUnavailable
}

// Position in the field sequence. Loading and unloading share a rank so the
// crew may switch between them.
var stopRank = map[StopStatus]int{
	StopPlanned:     0,
	StopEnroute:     1,
	StopArrived:     2,
	StopLoading:     3,
	StopUnloading:   3,
	StopDone:        4,
	StopSkipped:     4,
	StopUnavailable: 4,
}

// Represents one scheduled visit within a Route.
// A stop references either a collection point or a free-form address, never both.
type Stop struct {
	ID               int64
	RouteID          int64
	SeqNo            int
	PointID          *int64
	Address          *string
	TimeFrom         *time.Time
	TimeTo           *time.Time
	ExpectedCapacity *int
	ActualCapacity   *int
	Status           StopStatus
	Note             *string
}

// CheckStopTarget enforces that a stop visits exactly one of a collection point
// or a free-form address.
func CheckStopTarget(pointID *int64, address *string) error {
	hasAddress := address != nil && *address != ""
	switch {
	case pointID != nil && hasAddress:
		return BadRequest("invalid_stop_target", "stop must reference a collection point or an address, not both")
	case pointID == nil && !hasAddress:
		return BadRequest("invalid_stop_target", "stop must reference a collection point or an address")
	}
	return nil
}

// CanTransitionTo validates a status change. Re-applying the current status is
// always allowed.
func (s *Stop) CanTransitionTo(next StopStatus) error {
	if !next.Valid() {
		return BadRequest("invalid_stop_status", "unknown stop status %q", next)
	}
	if next == s.Status {
		return nil
	}
	if s.Status.IsTerminal() {
		return InvalidTransition("stop %d is %s and cannot become %s", s.ID, s.Status, next)
	}
	if stopRank[next] < stopRank[s.Status] {
		return InvalidTransition("stop %d cannot move back from %s to %s", s.ID, s.Status, next)
	}
	return nil
}

// MoveTo applies a validated status change and stamps the time window:
// TimeFrom on the first real-world status, TimeTo on the first terminal one.
// It reports whether the status actually changed.
func (s *Stop) MoveTo(next StopStatus, now time.Time) (bool, error) {
	if err := s.CanTransitionTo(next); err != nil {
		return false, err
	}

	changed := next != s.Status
	s.Status = next

	if s.TimeFrom == nil && next != StopPlanned {
		t := now
		s.TimeFrom = &t
	}
	if next.IsTerminal() && s.TimeTo == nil {
		t := now
		s.TimeTo = &t
	}
	return changed, nil
}
