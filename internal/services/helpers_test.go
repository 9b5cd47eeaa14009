package services

import (
	"context"
	"sync"
	"testing"
	"time"
	"waste-dispatch-service/internal/adapters/memory"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"

	"github.com/stretchr/testify/require"
)

const (
	adminID  int64 = 1
	driverID int64 = 2
	otherID  int64 = 3

	driverLogin = "ivanov"
	otherLogin  = "petrov"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.RouteEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...ports.RouteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []ports.RouteEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.RouteEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	store *memory.Store
	clock *fixedClock
	pub   *recordingPublisher
	d     *Dispatcher
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		store: memory.NewStore(),
		clock: &fixedClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
		pub:   &recordingPublisher{},
	}
	h.store.AddUser(domain.User{ID: adminID, Login: "admin", Role: domain.RoleAdmin})
	h.store.AddUser(domain.User{ID: driverID, Login: driverLogin, Role: domain.RoleDriver})
	h.store.AddUser(domain.User{ID: otherID, Login: otherLogin, Role: domain.RoleDriver})

	all := append([]Option{WithClock(h.clock.now), WithPublisher(h.pub)}, opts...)
	h.d = NewDispatcher(h.store, all...)
	return h
}

// addPoint registers a point with one weighed order of the given weight.
func (h *harness) addPoint(id int64, capacity int, weight float64) {
	h.store.AddPoint(domain.CollectionPoint{ID: id, Address: "point", Capacity: capacity})
	w := weight
	h.store.AddOrder(domain.DisposalOrder{PointID: id, ContainerCapacity: 10, Weight: &w})
}

func (h *harness) locked(t *testing.T, id int64) bool {
	t.Helper()
	p, ok := h.store.Point(id)
	require.True(t, ok)
	return p.Locked
}

// startedRoute generates a route, assigns the driver, opens a shift and starts it.
func (h *harness) startedRoute(t *testing.T) domain.Route {
	t.Helper()
	ctx := context.Background()

	route, err := h.d.GenerateRoute(ctx, nil)
	require.NoError(t, err)

	driver := driverID
	_, err = h.d.AssignDriver(ctx, route.ID, AssignInput{DriverID: &driver})
	require.NoError(t, err)

	_, err = h.d.OpenShift(ctx, driverLogin, nil)
	require.NoError(t, err)

	route, err = h.d.StartRoute(ctx, route.ID, driverLogin)
	require.NoError(t, err)
	return route
}

func ptr[T any](v T) *T { return &v }
