package services

import (
	"context"
	"fmt"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
)

// Turn ledger aggregates into per-point demand. Weight wins whenever at least one
// active order carries it; otherwise the requested container capacity is summed.
// Points without active orders are left out.
func LoadsFromAggregates(aggs []ports.PointAggregate) map[int64]domain.Load {
	loads := make(map[int64]domain.Load, len(aggs))
	for _, a := range aggs {
		if a.ActiveOrderCount <= 0 {
			continue
		}

		weighted := a.WeightedOrderCount > 0
		value := a.TotalContainerCapacity
		if weighted {
			value = a.TotalWeight
		}

		loads[a.PointID] = domain.Load{
			Value:              value,
			HasWeightSignal:    weighted,
			HasAnyActiveOrders: true,
		}
	}
	return loads
}

func AggregateLoads(ctx context.Context, ledger ports.OrderLedger) (map[int64]domain.Load, error) {
	aggs, err := ledger.AggregateActiveByPoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate loads: query ledger: %w", err)
	}
	return LoadsFromAggregates(aggs), nil
}
