package services

import (
	"context"
	"fmt"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/ports"
)

type AssignInput struct {
	DriverID     *int64
	VehicleID    *int64
	PlannedStart *time.Time
	PlannedEnd   *time.Time
}

// Load a route row-locked together with its stops.
func lockRoute(ctx context.Context, repos ports.Repositories, routeID int64) (domain.Route, error) {
	route, err := repos.Routes().GetForUpdate(ctx, routeID)
	if err != nil {
		return domain.Route{}, err
	}
	route.Stops, err = repos.Stops().ListForRoute(ctx, routeID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("load stops for route %d: %w", routeID, err)
	}
	return route, nil
}

// Resolve the caller and check that they drive this route.
func assignedDriver(ctx context.Context, repos ports.Repositories, route *domain.Route, login string) (domain.User, error) {
	user, err := repos.Users().FindByLogin(ctx, login)
	if err != nil {
		return domain.User{}, err
	}
	if err := user.RequireAssigned(route); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Check that an optional driver reference names a user with the driver role.
func requireDriverUser(ctx context.Context, repos ports.Repositories, driverID *int64) error {
	if driverID == nil {
		return nil
	}
	driver, err := repos.Users().FindByID(ctx, *driverID)
	if err != nil {
		return err
	}
	return driver.RequireDriver()
}

func unlockPoints(ctx context.Context, repos ports.Repositories, route domain.Route) error {
	ids := route.PointIDs()
	if len(ids) == 0 {
		return nil
	}
	if err := repos.Points().Unlock(ctx, ids); err != nil {
		return fmt.Errorf("unlock points of route %d: %w", route.ID, err)
	}
	return nil
}

// AssignDriver sets or clears the driver and planned window, and replaces the
// vehicle when one is given.
func (d *Dispatcher) AssignDriver(ctx context.Context, routeID int64, in AssignInput) (route domain.Route, err error) {
	defer obs.Time(ctx, "routes.assign")(&err)

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}

		if err := requireDriverUser(ctx, repos, in.DriverID); err != nil {
			return err
		}

		if err := route.Assign(in.DriverID, in.VehicleID, in.PlannedStart, in.PlannedEnd); err != nil {
			return err
		}
		return repos.Routes().Update(ctx, route)
	})
	if err != nil {
		return domain.Route{}, err
	}

	d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteAssigned, route)})
	return route, nil
}

// StartRoute puts the route into execution under the caller's open shift.
func (d *Dispatcher) StartRoute(ctx context.Context, routeID int64, login string) (route domain.Route, err error) {
	defer obs.Time(ctx, "routes.start")(&err)

	var started bool
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		driver, err := assignedDriver(ctx, repos, &route, login)
		if err != nil {
			return err
		}

		shift, ok, err := repos.Shifts().FindOpenShift(ctx, driver.ID)
		if err != nil {
			return fmt.Errorf("start route: find open shift: %w", err)
		}
		if !ok {
			return domain.ErrNoOpenShift
		}

		started = route.Status == domain.RoutePlanned
		if err := route.Start(shift, d.now()); err != nil {
			return err
		}
		return repos.Routes().Update(ctx, route)
	})
	if err != nil {
		return domain.Route{}, err
	}

	if started {
		d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteStarted, route)})
	}
	return route, nil
}

// FinishRoute closes an in-progress route. Stops still open are skipped.
func (d *Dispatcher) FinishRoute(ctx context.Context, routeID int64, login string) (route domain.Route, err error) {
	defer obs.Time(ctx, "routes.finish")(&err)

	var events []ports.RouteEvent
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		if _, err := assignedDriver(ctx, repos, &route, login); err != nil {
			return err
		}
		if route.Status != domain.RouteInProgress {
			return domain.InvalidTransition("route %d is %s and cannot be finished", route.ID, route.Status)
		}

		now := d.now()
		for i := range route.Stops {
			stop := &route.Stops[i]
			if stop.Status.IsTerminal() {
				continue
			}
			if _, _, err := d.transitionStop(ctx, repos, stop, domain.StopSkipped, stopEventInput{}, now); err != nil {
				return err
			}
			events = append(events, d.stopEvent(route, *stop))
		}

		if _, err := route.Complete(now); err != nil {
			return err
		}
		if err := repos.Routes().Update(ctx, route); err != nil {
			return err
		}
		return unlockPoints(ctx, repos, route)
	})
	if err != nil {
		return domain.Route{}, err
	}

	events = append(events, d.event(ports.RouteFinished, route))
	d.afterCommit(ctx, events)
	return route, nil
}

// CancelRoute abandons a planned or in-progress route.
func (d *Dispatcher) CancelRoute(ctx context.Context, routeID int64) (route domain.Route, err error) {
	defer obs.Time(ctx, "routes.cancel")(&err)

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		if err := route.Cancel(); err != nil {
			return err
		}
		if err := repos.Routes().Update(ctx, route); err != nil {
			return err
		}
		if !d.policy.UnlockOnCancel {
			return nil
		}
		return unlockPoints(ctx, repos, route)
	})
	if err != nil {
		return domain.Route{}, err
	}

	d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteCancelled, route)})
	return route, nil
}

// DeleteRoute removes the route with its stops. Points are unlocked only while
// the route still owns their locks; a finished route's points may already be
// locked by a newer route.
func (d *Dispatcher) DeleteRoute(ctx context.Context, routeID int64) (err error) {
	defer obs.Time(ctx, "routes.delete")(&err)

	var route domain.Route
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		if route.HoldsPointLocks(d.policy.UnlockOnCancel) {
			if err := unlockPoints(ctx, repos, route); err != nil {
				return err
			}
		}
		return repos.Routes().Delete(ctx, routeID)
	})
	if err != nil {
		return err
	}

	d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteDeleted, route)})
	return nil
}
