package ports

import (
	"context"
	"waste-dispatch-service/internal/domain"
)

// Port: driver shifts.
type ShiftDirectory interface {
	// Return the driver's open shift; ok is false when there is none.
	FindOpenShift(ctx context.Context, driverID int64) (shift domain.Shift, ok bool, err error)
	Create(ctx context.Context, s *domain.Shift) error
	Update(ctx context.Context, s domain.Shift) error
}

// Port: users known to the dispatch engine.
type UserDirectory interface {
	FindByLogin(ctx context.Context, login string) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
}

// Port: incidents reported against stops.
type IncidentRepository interface {
	Create(ctx context.Context, i *domain.Incident) error
	Get(ctx context.Context, id int64) (domain.Incident, error)
	Update(ctx context.Context, i domain.Incident) error
	List(ctx context.Context, unresolvedOnly bool) ([]domain.Incident, error)
}
