package services

import (
	"context"
	"fmt"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
)

func loadRoute(ctx context.Context, repos ports.Repositories, id int64) (domain.Route, error) {
	route, err := repos.Routes().Get(ctx, id)
	if err != nil {
		return domain.Route{}, err
	}
	route.Stops, err = repos.Stops().ListForRoute(ctx, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("load stops for route %d: %w", id, err)
	}
	return route, nil
}

func listWithStops(ctx context.Context, repos ports.Repositories, f ports.RouteFilter) ([]domain.Route, error) {
	routes, err := repos.Routes().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	for i := range routes {
		routes[i].Stops, err = repos.Stops().ListForRoute(ctx, routes[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list routes: load stops for route %d: %w", routes[i].ID, err)
		}
	}
	return routes, nil
}

// GetRoute returns a route with its stops.
func (d *Dispatcher) GetRoute(ctx context.Context, id int64) (route domain.Route, err error) {
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = loadRoute(ctx, repos, id)
		return err
	})
	return route, err
}

func (d *Dispatcher) ListRoutes(ctx context.Context, f ports.RouteFilter) (routes []domain.Route, err error) {
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		routes, err = listWithStops(ctx, repos, f)
		return err
	})
	return routes, err
}

// ListDriverRoutes returns the routes assigned to the calling driver.
func (d *Dispatcher) ListDriverRoutes(ctx context.Context, login string, status *domain.RouteStatus) (routes []domain.Route, err error) {
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		driver, err := driverByLogin(ctx, repos, login)
		if err != nil {
			return err
		}
		routes, err = listWithStops(ctx, repos, ports.RouteFilter{Status: status, DriverID: &driver.ID})
		return err
	})
	return routes, err
}

// GetDriverRoute returns one route, only to its assigned driver.
func (d *Dispatcher) GetDriverRoute(ctx context.Context, routeID int64, login string) (route domain.Route, err error) {
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err = loadRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		_, err = assignedDriver(ctx, repos, &route, login)
		return err
	})
	if err != nil {
		return domain.Route{}, err
	}
	return route, nil
}

// ListStopEvents returns the audit log of a stop, oldest first.
func (d *Dispatcher) ListStopEvents(ctx context.Context, stopID int64) (events []domain.StopEvent, err error) {
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if _, err := repos.Stops().Get(ctx, stopID); err != nil {
			return err
		}
		events, err = repos.StopEvents().ListForStop(ctx, stopID)
		return err
	})
	return events, err
}
