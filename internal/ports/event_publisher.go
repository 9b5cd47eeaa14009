package ports

import (
	"context"
	"time"
	"waste-dispatch-service/internal/domain"
)

type RouteEventType string

const (
	RouteGenerated RouteEventType = "route.generated"
	RouteCreated   RouteEventType = "route.created"
	RouteUpdated   RouteEventType = "route.updated"
	RouteAssigned  RouteEventType = "route.assigned"
	RouteStarted   RouteEventType = "route.started"
	RouteFinished  RouteEventType = "route.completed"
	RouteCancelled RouteEventType = "route.cancelled"
	RouteDeleted   RouteEventType = "route.deleted"
	StopUpdated    RouteEventType = "stop.updated"
	StopAdded      RouteEventType = "stop.added"
	StopRemoved    RouteEventType = "stop.removed"
)

// Notification about a committed route lifecycle change.
type RouteEvent struct {
	ID         string             `json:"id"`
	Type       RouteEventType     `json:"type"`
	RouteID    int64              `json:"route_id"`
	Status     domain.RouteStatus `json:"status"`
	StopID     *int64             `json:"stop_id,omitempty"`
	StopStatus *domain.StopStatus `json:"stop_status,omitempty"`
	At         time.Time          `json:"at"`
}

// Port: fan-out of route events to dashboards and driver apps.
type EventPublisher interface {
	Publish(ctx context.Context, events ...RouteEvent) error
}

// Port: dispatch counters.
type MetricsRecorder interface {
	RecordGeneration(mode string, stops int)
	RecordGenerationFailure(reason string)
	RecordRouteTransition(status domain.RouteStatus)
	RecordStopTransition(status domain.StopStatus)
}
