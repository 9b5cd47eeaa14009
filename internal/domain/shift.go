package domain

import "time"

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"
)

// A driver's bounded on-duty window. A driver has at most one open shift.
type Shift struct {
	ID        int64
	DriverID  int64
	VehicleID *int64
	OpenedAt  time.Time
	ClosedAt  *time.Time
	Status    ShiftStatus
}

func (s *Shift) Close(now time.Time) error {
	if s.Status == ShiftClosed {
		return InvalidTransition("shift %d is already closed", s.ID)
	}
	t := now
	s.ClosedAt = &t
	s.Status = ShiftClosed
	return nil
}
