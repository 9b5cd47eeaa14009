package services

import (
	"context"
	"fmt"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/ports"
)

type RouteInput struct {
	PlannedDate  time.Time
	DriverID     *int64
	VehicleID    *int64
	PlannedStart *time.Time
	PlannedEnd   *time.Time
}

// StopInput describes a manually planned stop. Exactly one of PointID and
// Address must be set.
type StopInput struct {
	PointID          *int64
	Address          *string
	TimeFrom         *time.Time
	TimeTo           *time.Time
	ExpectedCapacity *int
	Note             *string
}

func (in StopInput) validate() error {
	if err := domain.CheckStopTarget(in.PointID, in.Address); err != nil {
		return err
	}
	if in.ExpectedCapacity != nil && *in.ExpectedCapacity < 0 {
		return domain.BadRequest("invalid_capacity", "expected capacity must not be negative")
	}
	if in.TimeFrom != nil && in.TimeTo != nil && in.TimeTo.Before(*in.TimeFrom) {
		return domain.BadRequest("invalid_schedule", "stop time_to must not be before time_from")
	}
	return nil
}

// Lock a single collection point for a manually added stop.
func lockPoint(ctx context.Context, repos ports.Repositories, pointID int64) error {
	points, err := repos.Points().FindForUpdate(ctx, []int64{pointID})
	if err != nil {
		return fmt.Errorf("lock point %d: %w", pointID, err)
	}
	p, ok := points[pointID]
	if !ok {
		return domain.NotFound("point", pointID)
	}
	if p.Locked {
		return domain.ErrPointLocked
	}

	flipped, err := repos.Points().Lock(ctx, []int64{pointID})
	if err != nil {
		return fmt.Errorf("lock point %d: %w", pointID, err)
	}
	if len(flipped) != 1 {
		return fmt.Errorf("lock point %d: %w", pointID, domain.ErrPointLockLost)
	}
	return nil
}

// Load a planned route row-locked for editing and find one of its stops.
func editableStop(ctx context.Context, repos ports.Repositories, routeID, stopID int64) (domain.Route, int, error) {
	route, err := lockRoute(ctx, repos, routeID)
	if err != nil {
		return domain.Route{}, 0, err
	}
	if err := route.RequireEditable(); err != nil {
		return domain.Route{}, 0, err
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

// CreateRoute plans an empty route by hand. Stops are added with AddStop.
func (d *Dispatcher) CreateRoute(ctx context.Context, in RouteInput) (route domain.Route, err error) {
	defer obs.Time(ctx, "routes.create")(&err)

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := requireDriverUser(ctx, repos, in.DriverID); err != nil {
			return err
		}

		r := domain.NewRoute(in.PlannedDate, d.now())
		if err := r.Reschedule(in.PlannedDate, in.DriverID, in.VehicleID, in.PlannedStart, in.PlannedEnd); err != nil {
			return err
		}
		if err := repos.Routes().Create(ctx, r); err != nil {
			return fmt.Errorf("create route: %w", err)
		}
		route = *r
		route.Stops = []domain.Stop{}
		return nil
	})
	if err != nil {
		return domain.Route{}, err
	}

	d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteCreated, route)})
	return route, nil
}

// UpdateRoute replaces the plan of a route that has not started yet.
func (d *Dispatcher) UpdateRoute(ctx context.Context, routeID int64, in RouteInput) (route domain.Route, err error) {
	defer obs.Time(ctx, "routes.update")(&err)

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		if err := requireDriverUser(ctx, repos, in.DriverID); err != nil {
			return err
		}
		if err := route.Reschedule(in.PlannedDate, in.DriverID, in.VehicleID, in.PlannedStart, in.PlannedEnd); err != nil {
			return err
		}
		return repos.Routes().Update(ctx, route)
	})
	if err != nil {
		return domain.Route{}, err
	}

	d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteUpdated, route)})
	return route, nil
}

// AddStop appends a stop to a planned route at the next sequence number.
// A stop at a collection point locks that point.
func (d *Dispatcher) AddStop(ctx context.Context, routeID int64, in StopInput) (route domain.Route, err error) {
	defer obs.Time(ctx, "stops.add")(&err)

	if err := in.validate(); err != nil {
		return domain.Route{}, err
	}

	var added domain.Stop
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		if err := route.RequireEditable(); err != nil {
			return err
		}
		if in.PointID != nil {
			if err := lockPoint(ctx, repos, *in.PointID); err != nil {
				return err
			}
		}

		stop := &domain.Stop{
			RouteID:          route.ID,
			SeqNo:            len(route.Stops) + 1,
			PointID:          in.PointID,
			Address:          in.Address,
			TimeFrom:         in.TimeFrom,
			TimeTo:           in.TimeTo,
			ExpectedCapacity: in.ExpectedCapacity,
			Status:           domain.StopPlanned,
			Note:             in.Note,
		}
		if err := repos.Stops().CreateMany(ctx, []*domain.Stop{stop}); err != nil {
			return fmt.Errorf("add stop to route %d: %w", route.ID, err)
		}
		added = *stop
		route.Stops = append(route.Stops, added)
		return nil
	})
	if err != nil {
		return domain.Route{}, err
	}

	ev := d.stopEvent(route, added)
	ev.Type = ports.StopAdded
	d.afterCommit(ctx, []ports.RouteEvent{ev})
	return route, nil
}

// EditStop replaces the plan of one stop on a planned route. Moving the stop to
// another point releases the old point and locks the new one.
func (d *Dispatcher) EditStop(ctx context.Context, routeID, stopID int64, in StopInput) (route domain.Route, err error) {
	defer obs.Time(ctx, "stops.edit")(&err)

	if err := in.validate(); err != nil {
		return domain.Route{}, err
	}

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var idx int
		route, idx, err = editableStop(ctx, repos, routeID, stopID)
		if err != nil {
			return err
		}
		stop := &route.Stops[idx]

		if !samePoint(stop.PointID, in.PointID) {
			if stop.PointID != nil {
				if err := repos.Points().Unlock(ctx, []int64{*stop.PointID}); err != nil {
					return fmt.Errorf("edit stop %d: unlock point: %w", stop.ID, err)
				}
			}
			if in.PointID != nil {
				if err := lockPoint(ctx, repos, *in.PointID); err != nil {
					return err
				}
			}
		}

		stop.PointID = in.PointID
		stop.Address = in.Address
		stop.TimeFrom = in.TimeFrom
		stop.TimeTo = in.TimeTo
		stop.ExpectedCapacity = in.ExpectedCapacity
		stop.Note = in.Note
		return repos.Stops().Update(ctx, *stop)
	})
	if err != nil {
		return domain.Route{}, err
	}

	d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteUpdated, route)})
	return route, nil
}

// RemoveStop deletes a stop from a planned route, releases its point and
// renumbers the following stops so seqNo stays contiguous from 1.
func (d *Dispatcher) RemoveStop(ctx context.Context, routeID, stopID int64) (route domain.Route, err error) {
	defer obs.Time(ctx, "stops.remove")(&err)

	var removed domain.Stop
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var idx int
		route, idx, err = editableStop(ctx, repos, routeID, stopID)
		if err != nil {
			return err
		}
		removed = route.Stops[idx]

		if err := repos.Stops().Delete(ctx, removed.ID); err != nil {
			return err
		}
		if removed.PointID != nil {
			if err := repos.Points().Unlock(ctx, []int64{*removed.PointID}); err != nil {
				return fmt.Errorf("remove stop %d: unlock point: %w", removed.ID, err)
			}
		}

		// ascending order keeps (route_id, seq_no) unique after every update
		rest := route.Stops[idx+1:]
		for i := range rest {
			rest[i].SeqNo--
			if err := repos.Stops().Update(ctx, rest[i]); err != nil {
				return fmt.Errorf("remove stop %d: renumber: %w", removed.ID, err)
			}
		}
		route.Stops = append(route.Stops[:idx], rest...)
		return nil
	})
	if err != nil {
		return domain.Route{}, err
	}

	ev := d.stopEvent(route, removed)
	ev.Type = ports.StopRemoved
	d.afterCommit(ctx, []ports.RouteEvent{ev})
	return route, nil
}

func samePoint(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
