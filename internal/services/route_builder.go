package services

import (
	"context"
	"fmt"
	"math"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
)

// Persist a planned route with one stop per candidate and lock every candidate
// point. Must run inside a unit of work: any failure, including a point that a
// concurrent generation locked first, aborts the whole route.
func BuildRoute(ctx context.Context, repos ports.Repositories, candidates []Candidate, plannedDate, now time.Time) (domain.Route, error) {
	if len(candidates) == 0 {
		return domain.Route{}, fmt.Errorf("build route: %w", domain.ErrNoPendingDemand)
	}

	route := domain.NewRoute(plannedDate, now)
	if err := repos.Routes().Create(ctx, route); err != nil {
		return domain.Route{}, fmt.Errorf("build route: create route: %w", err)
	}

	stops := make([]*domain.Stop, 0, len(candidates))
	ids := make([]int64, 0, len(candidates))
	for i, c := range candidates {
		pointID := c.Point.ID
		expected := int(math.Round(c.Load.Value))
		stops = append(stops, &domain.Stop{
			RouteID:          route.ID,
			SeqNo:            i + 1,
			PointID:          &pointID,
			ExpectedCapacity: &expected,
			Status:           domain.StopPlanned,
		})
		ids = append(ids, pointID)
	}

	if err := repos.Stops().CreateMany(ctx, stops); err != nil {
		return domain.Route{}, fmt.Errorf("build route: create stops: %w", err)
	}

	flipped, err := repos.Points().Lock(ctx, ids)
	if err != nil {
		return domain.Route{}, fmt.Errorf("build route: lock points: %w", err)
	}
	if len(flipped) != len(ids) {
		return domain.Route{}, fmt.Errorf("build route: locked %d of %d points: %w", len(flipped), len(ids), domain.ErrPointLockLost)
	}

	route.Stops = make([]domain.Stop, 0, len(stops))
	for _, s := range stops {
		route.Stops = append(route.Stops, *s)
	}
	return *route, nil
}
