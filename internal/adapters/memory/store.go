package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
	"waste-dispatch-service/internal/adapters/fixtures"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
)

// Store is an in-memory UnitOfWork. Transactions are serialized by a single
// mutex and work on a copy of the state that is swapped in only on success, so
// a failed operation leaves nothing behind.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
}

type state struct {
	points    map[int64]domain.CollectionPoint
	orders    map[int64]domain.DisposalOrder
	routes    map[int64]domain.Route
	stops     map[int64]domain.Stop
	events    map[int64]domain.StopEvent
	shifts    map[int64]domain.Shift
	users     map[int64]domain.User
	incidents map[int64]domain.Incident
	seq       int64
}

func newState() *state {
	return &state{
		points:    map[int64]domain.CollectionPoint{},
		orders:    map[int64]domain.DisposalOrder{},
		routes:    map[int64]domain.Route{},
		stops:     map[int64]domain.Stop{},
		events:    map[int64]domain.StopEvent{},
		shifts:    map[int64]domain.Shift{},
		users:     map[int64]domain.User{},
		incidents: map[int64]domain.Incident{},
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Entities hold pointer fields, but domain code only ever replaces those
// pointers, never writes through them, so a shallow copy is enough.
func (s *state) clone() *state {
	return &state{
		points:    cloneMap(s.points),
		orders:    cloneMap(s.orders),
		routes:    cloneMap(s.routes),
		stops:     cloneMap(s.stops),
		events:    cloneMap(s.events),
		shifts:    cloneMap(s.shifts),
		users:     cloneMap(s.users),
		incidents: cloneMap(s.incidents),
		seq:       s.seq,
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func NewStore() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory tx: %w", err)
	}

	work := s.st.clone()
	if err := fn(ctx, &txRepos{st: work, store: s}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// FailNext makes the next call of the named repository operation return err,
// e.g. FailNext("stops.create", io.ErrUnexpectedEOF).
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Called with mu held.
func (s *Store) fail(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[u.ID] = u
	s.bump(u.ID)
}

func (s *Store) AddPoint(p domain.CollectionPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.points[p.ID] = p
	s.bump(p.ID)
}

// AddOrder assigns an id when o.ID is zero.
func (s *Store) AddOrder(o domain.DisposalOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.st.nextID()
	}
	if o.Status == "" {
		o.Status = domain.OrderConfirmed
	}
	s.st.orders[o.ID] = o
	s.bump(o.ID)
}

// Seed loads fixtures into the store.
func (s *Store) Seed(f *fixtures.Fixtures, now time.Time) {
	for _, u := range f.DomainUsers() {
		s.AddUser(u)
	}
	for _, p := range f.DomainPoints() {
		s.AddPoint(p)
	}
	for _, o := range f.DomainOrders(now) {
		s.AddOrder(o)
	}
}

// Point returns the committed state of a collection point.
func (s *Store) Point(id int64) (domain.CollectionPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.points[id]
	return p, ok
}

// Keep generated ids clear of seeded ones.
func (s *Store) bump(id int64) {
	if id > s.st.seq {
		s.st.seq = id
	}
}
