package services

import (
	"context"
	"fmt"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/ports"
)

type StopUpdate struct {
	Status         domain.StopStatus
	ActualCapacity *int
	Note           *string
}

type StopEventInput struct {
	Type     domain.StopEventType
	PhotoURL *string
	Comment  *string
}

// Event attributes carried by a transition. force appends the event even when
// the status does not change.
type stopEventInput struct {
	typ      domain.StopEventType
	photoURL *string
	comment  *string
	force    bool
}

// transitionStop is the only place a stop status changes. It persists the stop
// and appends the matching StopEvent, which is nil when nothing was logged.
func (d *Dispatcher) transitionStop(ctx context.Context, repos ports.Repositories, stop *domain.Stop, next domain.StopStatus, ev stopEventInput, now time.Time) (bool, *domain.StopEvent, error) {
	changed, err := stop.MoveTo(next, now)
	if err != nil {
		return false, nil, err
	}
	if err := repos.Stops().Update(ctx, *stop); err != nil {
		return false, nil, fmt.Errorf("transition stop %d: %w", stop.ID, err)
	}

	if !changed && !ev.force {
		return false, nil, nil
	}

	typ := ev.typ
	if typ == "" {
		typ = domain.EventTypeFor(next)
	}
	event := &domain.StopEvent{
		StopID:    stop.ID,
		Type:      typ,
		CreatedAt: now,
		PhotoURL:  ev.photoURL,
		Comment:   ev.comment,
	}
	if err := repos.StopEvents().Append(ctx, event); err != nil {
		return false, nil, fmt.Errorf("transition stop %d: append event: %w", stop.ID, err)
	}
	return changed, event, nil
}

// completeIfFinished completes an in-progress route whose stops are all
// terminal and unlocks its points. It is a no-op otherwise.
func (d *Dispatcher) completeIfFinished(ctx context.Context, repos ports.Repositories, route *domain.Route, now time.Time) (bool, error) {
	if route.Status != domain.RouteInProgress || !route.AllStopsTerminal() {
		return false, nil
	}

	changed, err := route.Complete(now)
	if err != nil || !changed {
		return false, err
	}
	if err := repos.Routes().Update(ctx, *route); err != nil {
		return false, fmt.Errorf("auto-complete route %d: %w", route.ID, err)
	}
	if err := unlockPoints(ctx, repos, *route); err != nil {
		return false, err
	}
	return true, nil
}

// Lock the route, authorize the caller and find the stop on it.
func openStop(ctx context.Context, repos ports.Repositories, routeID, stopID int64, login string) (domain.Route, int, error) {
	route, err := lockRoute(ctx, repos, routeID)
	if err != nil {
		return domain.Route{}, 0, err
	}
	if _, err := assignedDriver(ctx, repos, &route, login); err != nil {
		return domain.Route{}, 0, err
	}
	if route.Status != domain.RouteInProgress {
		return domain.Route{}, 0, domain.InvalidTransition("route %d is %s; stops can only change while it is in_progress", route.ID, route.Status)
	}

	for i := range route.Stops {
		if route.Stops[i].ID == stopID {
			return route, i, nil
		}
	}
	if _, err := repos.Stops().Get(ctx, stopID); err != nil {
		return domain.Route{}, 0, err
	}
	return domain.Route{}, 0, domain.ErrStopNotOnRoute
}

// UpdateStop applies a field update from the driver and returns the refreshed
// route with its stops.
func (d *Dispatcher) UpdateStop(ctx context.Context, routeID, stopID int64, login string, in StopUpdate) (route domain.Route, err error) {
	defer obs.Time(ctx, "stops.update")(&err)

	var events []ports.RouteEvent
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var idx int
		route, idx, err = openStop(ctx, repos, routeID, stopID, login)
		if err != nil {
			return err
		}

		now := d.now()
		stop := &route.Stops[idx]
		stop.ActualCapacity = in.ActualCapacity
		stop.Note = in.Note

		changed, _, err := d.transitionStop(ctx, repos, stop, in.Status, stopEventInput{}, now)
		if err != nil {
			return err
		}
		if changed {
			events = append(events, d.stopEvent(route, *stop))
		}

		completed, err := d.completeIfFinished(ctx, repos, &route, now)
		if err != nil {
			return err
		}
		if completed {
			events = append(events, d.event(ports.RouteFinished, route))
		}
		return nil
	})
	if err != nil {
		return domain.Route{}, err
	}

	d.afterStopChange(ctx, route, events)
	return route, nil
}

// RecordStopEvent appends an explicit field event. Status-bearing events move
// the stop through the same transition as UpdateStop; comments only log.
func (d *Dispatcher) RecordStopEvent(ctx context.Context, routeID, stopID int64, login string, in StopEventInput) (event domain.StopEvent, err error) {
	defer obs.Time(ctx, "stops.event")(&err)

	if !in.Type.Valid() {
		return domain.StopEvent{}, domain.BadRequest("invalid_event_type", "unknown stop event type %q", in.Type)
	}

	var (
		route  domain.Route
		events []ports.RouteEvent
	)
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var idx int
		route, idx, err = openStop(ctx, repos, routeID, stopID, login)
		if err != nil {
			return err
		}

		now := d.now()
		stop := &route.Stops[idx]
		attrs := stopEventInput{typ: in.Type, photoURL: in.PhotoURL, comment: in.Comment, force: true}

		next, ok := in.Type.TargetStatus()
		if !ok {
			next = stop.Status
		}
		changed, recorded, err := d.transitionStop(ctx, repos, stop, next, attrs, now)
		if err != nil {
			return err
		}
		event = *recorded
		if changed {
			events = append(events, d.stopEvent(route, *stop))
		}

		completed, err := d.completeIfFinished(ctx, repos, &route, now)
		if err != nil {
			return err
		}
		if completed {
			events = append(events, d.event(ports.RouteFinished, route))
		}
		return nil
	})
	if err != nil {
		return domain.StopEvent{}, err
	}

	d.afterStopChange(ctx, route, events)
	return event, nil
}

func (d *Dispatcher) afterStopChange(ctx context.Context, route domain.Route, events []ports.RouteEvent) {
	for _, ev := range events {
		if ev.Type == ports.RouteFinished {
			d.log.InfoContext(ctx, "route auto-completed", "route_id", route.ID)
		}
	}
	d.afterCommit(ctx, events)
}
