package services

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

func seqNos(r domain.Route) []int {
	out := make([]int, 0, len(r.Stops))
	for _, s := range r.Stops {
		out = append(out, s.SeqNo)
	}
	return out
}

func (h *harness) manualRoute(t *testing.T) domain.Route {
	t.Helper()
	driver := driverID
	route, err := h.d.CreateRoute(context.Background(), RouteInput{
		PlannedDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		DriverID:    &driver,
	})
	require.NoError(t, err)
	return route
}

func TestCreateRoute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	route := h.manualRoute(t)
	assert.Equal(t, domain.RoutePlanned, route.Status)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), route.PlannedDate)
	assert.True(t, route.IsDrivenBy(driverID))
	assert.Empty(t, route.Stops)
	assert.Contains(t, h.pub.types(), ports.RouteCreated)

	admin := adminID
	_, err := h.d.CreateRoute(ctx, RouteInput{PlannedDate: h.clock.t, DriverID: &admin})
	assert.ErrorIs(t, err, domain.ErrNotADriver)

	start := h.clock.t
	end := start.Add(-time.Hour)
	_, err = h.d.CreateRoute(ctx, RouteInput{PlannedDate: h.clock.t, PlannedStart: &start, PlannedEnd: &end})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdateRouteOnlyWhilePlanned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	route := h.manualRoute(t)

	vehicle := int64(9)
	updated, err := h.d.UpdateRoute(ctx, route.ID, RouteInput{
		PlannedDate: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		VehicleID:   &vehicle,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.DriverID)
	assert.Equal(t, vehicle, *updated.VehicleID)
	assert.Equal(t, 6, updated.PlannedDate.Day())

	driver := driverID
	_, err = h.d.UpdateRoute(ctx, route.ID, RouteInput{PlannedDate: h.clock.t, DriverID: &driver})
	require.NoError(t, err)
	_, err = h.d.AddStop(ctx, route.ID, StopInput{Address: ptr("Depot gate")})
	require.NoError(t, err)
	_, err = h.d.OpenShift(ctx, driverLogin, nil)
	require.NoError(t, err)
	_, err = h.d.StartRoute(ctx, route.ID, driverLogin)
	require.NoError(t, err)

	_, err = h.d.UpdateRoute(ctx, route.ID, RouteInput{PlannedDate: h.clock.t})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.d.UpdateRoute(ctx, 999, RouteInput{PlannedDate: h.clock.t})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddStopAppendsAndLocksPoint(t *testing.T) {
	h := newHarness(t)
	h.addPoint(10, 100, 20)
	h.addPoint(11, 100, 20)
	ctx := context.Background()
	route := h.manualRoute(t)

	capacity := 15
	route, err := h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(10)), ExpectedCapacity: &capacity})
	require.NoError(t, err)
	assert.True(t, h.locked(t, 10))

	route, err = h.d.AddStop(ctx, route.ID, StopInput{Address: ptr("Depot gate"), Note: ptr("back entrance")})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seqNos(route))
	assert.Equal(t, "Depot gate", *route.Stops[1].Address)
	assert.Nil(t, route.Stops[1].PointID)
	assert.Equal(t, domain.StopPlanned, route.Stops[1].Status)

	_, err = h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(10))})
	assert.ErrorIs(t, err, domain.ErrPointLocked)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(11)), Address: ptr("both")})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	_, err = h.d.AddStop(ctx, route.ID, StopInput{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	_, err = h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(404))})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := h.d.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seqNos(got))

	// generation only sees the point the manual route left free
	generated, err := h.d.GenerateRoute(ctx, nil)
	require.NoError(t, err)
	require.Len(t, generated.Stops, 1)
	assert.Equal(t, int64(11), *generated.Stops[0].PointID)
}

func TestRemoveStopRenumbersAndUnlocks(t *testing.T) {
	h := newHarness(t)
	h.addPoint(10, 100, 20)
	h.addPoint(11, 100, 20)
	ctx := context.Background()
	route := h.manualRoute(t)

	for _, in := range []StopInput{{PointID: ptr(int64(10))}, {Address: ptr("Depot gate")}, {PointID: ptr(int64(11))}} {
		var err error
		route, err = h.d.AddStop(ctx, route.ID, in)
		require.NoError(t, err)
	}
	first, last := route.Stops[0].ID, route.Stops[2].ID

	route, err := h.d.RemoveStop(ctx, route.ID, first)
	require.NoError(t, err)
	assert.False(t, h.locked(t, 10))
	assert.True(t, h.locked(t, 11))
	assert.Equal(t, []int{1, 2}, seqNos(route))

	got, err := h.d.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seqNos(got))
	assert.Equal(t, last, got.Stops[1].ID)

	route, err = h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(10))})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seqNos(route))

	_, err = h.d.RemoveStop(ctx, route.ID, first)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other := h.manualRoute(t)
	_, err = h.d.RemoveStop(ctx, other.ID, last)
	assert.ErrorIs(t, err, domain.ErrStopNotOnRoute)
}

func TestRemoveStopRollsBack(t *testing.T) {
	h := newHarness(t)
	h.addPoint(10, 100, 20)
	ctx := context.Background()
	route := h.manualRoute(t)
	route, err := h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(10))})
	require.NoError(t, err)
	route, err = h.d.AddStop(ctx, route.ID, StopInput{Address: ptr("Depot gate")})
	require.NoError(t, err)

	h.store.FailNext("stops.update", errors.New("disk full"))
	_, err = h.d.RemoveStop(ctx, route.ID, route.Stops[0].ID)
	require.Error(t, err)

	got, err := h.d.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Len(t, got.Stops, 2)
	assert.True(t, h.locked(t, 10))
}

func TestEditStopMovesLock(t *testing.T) {
	h := newHarness(t)
	h.addPoint(10, 100, 20)
	h.addPoint(11, 100, 20)
	ctx := context.Background()
	route := h.manualRoute(t)
	route, err := h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(10))})
	require.NoError(t, err)
	stopID := route.Stops[0].ID

	capacity := 30
	route, err = h.d.EditStop(ctx, route.ID, stopID, StopInput{PointID: ptr(int64(11)), ExpectedCapacity: &capacity})
	require.NoError(t, err)
	assert.False(t, h.locked(t, 10))
	assert.True(t, h.locked(t, 11))
	assert.Equal(t, 30, *route.Stops[0].ExpectedCapacity)
	assert.Equal(t, 1, route.Stops[0].SeqNo)

	// same point keeps its lock
	_, err = h.d.EditStop(ctx, route.ID, stopID, StopInput{PointID: ptr(int64(11)), Note: ptr("call first")})
	require.NoError(t, err)
	assert.True(t, h.locked(t, 11))

	route, err = h.d.EditStop(ctx, route.ID, stopID, StopInput{Address: ptr("Depot gate")})
	require.NoError(t, err)
	assert.False(t, h.locked(t, 11))
	assert.Nil(t, route.Stops[0].PointID)

	got, err := h.d.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, "Depot gate", *got.Stops[0].Address)
	assert.Nil(t, got.Stops[0].Note)
}

func TestStopEditingRequiresPlannedRoute(t *testing.T) {
	h := newHarness(t)
	h.addPoint(10, 100, 90)
	h.store.AddPoint(domain.CollectionPoint{ID: 20, Address: "spare", Capacity: 100})
	ctx := context.Background()
	route := h.startedRoute(t)
	stopID := route.Stops[0].ID

	_, err := h.d.AddStop(ctx, route.ID, StopInput{PointID: ptr(int64(20))})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.False(t, h.locked(t, 20))

	_, err = h.d.EditStop(ctx, route.ID, stopID, StopInput{Address: ptr("Depot gate")})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.d.RemoveStop(ctx, route.ID, stopID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.True(t, h.locked(t, 10))
}
