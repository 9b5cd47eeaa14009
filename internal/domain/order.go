package domain

import "time"

type OrderStatus string

const (
	OrderConfirmed OrderStatus = "confirmed"
	OrderDone      OrderStatus = "done"
	OrderCancelled OrderStatus = "cancelled"
)

// A kiosk disposal order waiting at a collection point. Orders belong to the
// ledger; the dispatch engine only reads their aggregates.
type DisposalOrder struct {
	ID                int64
	PointID           int64
	ContainerCapacity int
	Weight            *float64
	Status            OrderStatus
	CreatedAt         time.Time
}

// Active reports whether the order still counts as pending demand.
func (o DisposalOrder) Active() bool { return o.Status != OrderCancelled }

// Weighed reports whether the kiosk recorded a weight for the order.
func (o DisposalOrder) Weighed() bool { return o.Weight != nil && *o.Weight > 0 }
