package memory

import (
	"context"
	"errors"
	"testing"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weight(v float64) *float64 { return &v }

func TestLedgerAggregatesActiveOrders(t *testing.T) {
	s := NewStore()
	s.AddPoint(domain.CollectionPoint{ID: 2, Capacity: 100})
	s.AddPoint(domain.CollectionPoint{ID: 1, Capacity: 100})
	s.AddOrder(domain.DisposalOrder{PointID: 2, ContainerCapacity: 20, Weight: weight(12)})
	s.AddOrder(domain.DisposalOrder{PointID: 2, ContainerCapacity: 30})
	s.AddOrder(domain.DisposalOrder{PointID: 1, ContainerCapacity: 40})
	s.AddOrder(domain.DisposalOrder{PointID: 1, ContainerCapacity: 40, Status: domain.OrderCancelled})

	var aggs []ports.PointAggregate
	err := s.WithinTx(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		var err error
		aggs, err = repos.Ledger().AggregateActiveByPoint(ctx)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []ports.PointAggregate{
		{PointID: 1, ActiveOrderCount: 1, TotalContainerCapacity: 40},
		{PointID: 2, TotalWeight: 12, ActiveOrderCount: 2, WeightedOrderCount: 1, TotalContainerCapacity: 50},
	}, aggs)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := NewStore()
	s.AddPoint(domain.CollectionPoint{ID: 1, Capacity: 100})
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		r := domain.NewRoute(time.Now(), time.Now())
		require.NoError(t, repos.Routes().Create(ctx, r))
		flipped, err := repos.Points().Lock(ctx, []int64{1})
		require.NoError(t, err)
		require.Equal(t, []int64{1}, flipped)
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, _ := s.Point(1)
	assert.False(t, p.Locked)
	_ = s.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		routes, err := repos.Routes().List(ctx, ports.RouteFilter{})
		require.NoError(t, err)
		assert.Empty(t, routes)
		return nil
	})
}

func TestLockIsCompareAndSwap(t *testing.T) {
	s := NewStore()
	s.AddPoint(domain.CollectionPoint{ID: 1, Locked: true})
	s.AddPoint(domain.CollectionPoint{ID: 2})

	err := s.WithinTx(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		flipped, err := repos.Points().Lock(ctx, []int64{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, flipped)
		return nil
	})
	require.NoError(t, err)
}

func TestFailNextFiresOnce(t *testing.T) {
	s := NewStore()
	s.AddPoint(domain.CollectionPoint{ID: 1})
	boom := errors.New("boom")
	s.FailNext("points.unlock", boom)

	unlock := func() error {
		return s.WithinTx(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
			return repos.Points().Unlock(ctx, []int64{1})
		})
	}
	assert.ErrorIs(t, unlock(), boom)
	assert.NoError(t, unlock())
}

func TestOneOpenShiftPerDriver(t *testing.T) {
	s := NewStore()
	err := s.WithinTx(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		require.NoError(t, repos.Shifts().Create(ctx, &domain.Shift{DriverID: 7, Status: domain.ShiftOpen}))
		return repos.Shifts().Create(ctx, &domain.Shift{DriverID: 7, Status: domain.ShiftOpen})
	})
	assert.ErrorIs(t, err, domain.ErrShiftAlreadyOpen)
}
