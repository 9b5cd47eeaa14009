package ports

import "context"

// Active (non-cancelled) order totals for one collection point.
type PointAggregate struct {
	PointID                int64
	TotalWeight            float64
	ActiveOrderCount       int
	WeightedOrderCount     int
	TotalContainerCapacity float64
}

// Port: the disposal-order ledger owned by the kiosk side of the system.
type OrderLedger interface {
	// Return one row per point that has at least one active order.
	AggregateActiveByPoint(ctx context.Context) ([]PointAggregate, error)
}
