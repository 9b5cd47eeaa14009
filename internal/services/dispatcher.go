package services

import (
	"context"
	"log/slog"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"

	"github.com/google/uuid"
)

// Policy holds the tunable dispatch rules.
type Policy struct {
	FillThreshold   float64
	FallbackEnabled bool
	UnlockOnCancel  bool
}

func DefaultPolicy() Policy {
	return Policy{FillThreshold: 0.7, FallbackEnabled: true, UnlockOnCancel: true}
}

// Dispatcher runs every route and stop operation as one unit of work and
// publishes the resulting route events after commit.
type Dispatcher struct {
	uow       ports.UnitOfWork
	publisher ports.EventPublisher
	metrics   ports.MetricsRecorder
	log       *slog.Logger
	now       func() time.Time
	policy    Policy
}

type Option func(*Dispatcher)

func WithPublisher(p ports.EventPublisher) Option { return func(d *Dispatcher) { d.publisher = p } }

func WithMetrics(m ports.MetricsRecorder) Option { return func(d *Dispatcher) { d.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.log = l } }

func WithClock(now func() time.Time) Option { return func(d *Dispatcher) { d.now = now } }

func WithPolicy(p Policy) Option { return func(d *Dispatcher) { d.policy = p } }

func NewDispatcher(uow ports.UnitOfWork, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		uow:       uow,
		publisher: nopPublisher{},
		metrics:   nopMetrics{},
		log:       slog.Default(),
		now:       time.Now,
		policy:    DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("component", "dispatcher")
	return d
}

// Policy returns the active dispatch rules.
func (d *Dispatcher) Policy() Policy { return d.policy }

func (d *Dispatcher) event(t ports.RouteEventType, r domain.Route) ports.RouteEvent {
	return ports.RouteEvent{
		ID:      uuid.NewString(),
		Type:    t,
		RouteID: r.ID,
		Status:  r.Status,
		At:      d.now(),
	}
}

func (d *Dispatcher) stopEvent(r domain.Route, s domain.Stop) ports.RouteEvent {
	ev := d.event(ports.StopUpdated, r)
	id, status := s.ID, s.Status
	ev.StopID = &id
	ev.StopStatus = &status
	return ev
}

// afterCommit counts the transitions carried by events and publishes them.
// Publish failures never fail the committed operation.
func (d *Dispatcher) afterCommit(ctx context.Context, events []ports.RouteEvent) {
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		switch ev.Type {
		case ports.StopUpdated:
			if ev.StopStatus != nil {
				d.metrics.RecordStopTransition(*ev.StopStatus)
			}
		case ports.RouteStarted, ports.RouteFinished, ports.RouteCancelled:
			d.metrics.RecordRouteTransition(ev.Status)
		}
	}
	if err := d.publisher.Publish(ctx, events...); err != nil {
		d.log.WarnContext(ctx, "publish route events", "count", len(events), "error", err)
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...ports.RouteEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordGeneration(string, int) {}
func (nopMetrics) RecordGenerationFailure(string) {}
func (nopMetrics) RecordRouteTransition(domain.RouteStatus) {}
func (nopMetrics) RecordStopTransition(domain.StopStatus) {}
