package ports

import (
	"context"
	"time"
	"waste-dispatch-service/internal/domain"
)

type RouteFilter struct {
	Status      *domain.RouteStatus
	DriverID    *int64
	PlannedDate *time.Time
}

// Port: route persistence. Routes are returned without stops.
type RouteRepository interface {
	// Insert a route and set its ID.
	Create(ctx context.Context, r *domain.Route) error
	Get(ctx context.Context, id int64) (domain.Route, error)
	// Like Get, but holds a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (domain.Route, error)
	Update(ctx context.Context, r domain.Route) error
	// Remove the route together with its stops, stop events and incidents.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f RouteFilter) ([]domain.Route, error)
}

// Port: stop persistence.
type StopRepository interface {
	// Insert stops and set their IDs.
	CreateMany(ctx context.Context, stops []*domain.Stop) error
	Get(ctx context.Context, id int64) (domain.Stop, error)
	// Return the stops of one route ordered by seq_no.
	ListForRoute(ctx context.Context, routeID int64) ([]domain.Stop, error)
	Update(ctx context.Context, s domain.Stop) error
	// Remove a stop together with its events and incidents.
	Delete(ctx context.Context, id int64) error
}

// Port: append-only stop audit log.
type StopEventRepository interface {
	Append(ctx context.Context, e *domain.StopEvent) error
	ListForStop(ctx context.Context, stopID int64) ([]domain.StopEvent, error)
}
