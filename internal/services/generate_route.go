package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/ports"
)

// GenerateRoute aggregates pending demand, selects the points to visit and
// builds a planned route for plannedDate (today when nil).
func (d *Dispatcher) GenerateRoute(ctx context.Context, plannedDate *time.Time) (route domain.Route, err error) {
	defer obs.Time(ctx, "routes.generate")(&err)

	now := d.now()
	date := now
	if plannedDate != nil {
		date = *plannedDate
	}

	var mode SelectionMode
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		loads, err := AggregateLoads(ctx, repos.Ledger())
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(loads))
		for id := range loads {
			ids = append(ids, id)
		}
		points, err := repos.Points().FindForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("generate route: load points: %w", err)
		}

		candidates, m, err := SelectCandidates(loads, points, d.policy)
		if err != nil {
			return err
		}
		mode = m

		route, err = BuildRoute(ctx, repos, candidates, date, now)
		return err
	})
	if err != nil {
		d.metrics.RecordGenerationFailure(failureReason(err))
		return domain.Route{}, err
	}

	d.metrics.RecordGeneration(string(mode), len(route.Stops))
	d.log.InfoContext(ctx, "route generated",
		"route_id", route.ID, "stops", len(route.Stops), "mode", mode)
	d.afterCommit(ctx, []ports.RouteEvent{d.event(ports.RouteGenerated, route)})
	return route, nil
}

func failureReason(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal"
}
