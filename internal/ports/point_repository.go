package ports

import (
	"context"
	"waste-dispatch-service/internal/domain"
)

// Port: collection point lookup and the availability lock.
type PointRepository interface {
	// Return the requested points keyed by id, row-locked until the transaction ends.
	// Unknown ids are absent from the result.
	FindForUpdate(ctx context.Context, ids []int64) (map[int64]domain.CollectionPoint, error)
	// Flip locked from false to true and return the ids that were flipped.
	// Points that were already locked are left untouched and omitted.
	Lock(ctx context.Context, ids []int64) ([]int64, error)
	// Clear the lock on every given point.
	Unlock(ctx context.Context, ids []int64) error
}
