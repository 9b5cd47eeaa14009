package memory

import (
	"context"
	"slices"
	"time"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
)

type txRepos struct {
	st    *state
	store *Store
}

func (t *txRepos) Ledger() ports.OrderLedger { return ledger{t} }
func (t *txRepos) Points() ports.PointRepository { return points{t} }
func (t *txRepos) Routes() ports.RouteRepository { return routes{t} }
func (t *txRepos) Stops() ports.StopRepository { return stops{t} }
func (t *txRepos) StopEvents() ports.StopEventRepository { return stopEvents{t} }
func (t *txRepos) Shifts() ports.ShiftDirectory { return shifts{t} }
func (t *txRepos) Users() ports.UserDirectory { return users{t} }
func (t *txRepos) Incidents() ports.IncidentRepository { return incidents{t} }

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type ledger struct{ *txRepos }

func (l ledger) AggregateActiveByPoint(ctx context.Context) ([]ports.PointAggregate, error) {
	if err := l.store.fail("ledger.aggregate"); err != nil {
		return nil, err
	}

	byPoint := map[int64]*ports.PointAggregate{}
	for _, id := range sortedKeys(l.st.orders) {
		o := l.st.orders[id]
		if !o.Active() {
			continue
		}
		agg, ok := byPoint[o.PointID]
		if !ok {
			agg = &ports.PointAggregate{PointID: o.PointID}
			byPoint[o.PointID] = agg
		}
		agg.ActiveOrderCount++
		agg.TotalContainerCapacity += float64(o.ContainerCapacity)
		if o.Weighed() {
			agg.WeightedOrderCount++
			agg.TotalWeight += *o.Weight
		}
	}

	out := make([]ports.PointAggregate, 0, len(byPoint))
	for _, id := range sortedKeys(byPoint) {
		out = append(out, *byPoint[id])
	}
	return out, nil
}

type points struct{ *txRepos }

func (p points) FindForUpdate(ctx context.Context, ids []int64) (map[int64]domain.CollectionPoint, error) {
	if err := p.store.fail("points.find"); err != nil {
		return nil, err
	}
	out := make(map[int64]domain.CollectionPoint, len(ids))
	for _, id := range ids {
		if cp, ok := p.st.points[id]; ok {
			out[id] = cp
		}
	}
	return out, nil
}

func (p points) Lock(ctx context.Context, ids []int64) ([]int64, error) {
	if err := p.store.fail("points.lock"); err != nil {
		return nil, err
	}
	flipped := make([]int64, 0, len(ids))
	for _, id := range ids {
		cp, ok := p.st.points[id]
		if !ok || cp.Locked {
			continue
		}
		cp.Locked = true
		p.st.points[id] = cp
		flipped = append(flipped, id)
	}
	return flipped, nil
}

func (p points) Unlock(ctx context.Context, ids []int64) error {
	if err := p.store.fail("points.unlock"); err != nil {
		return err
	}
	for _, id := range ids {
		if cp, ok := p.st.points[id]; ok {
			cp.Locked = false
			p.st.points[id] = cp
		}
	}
	return nil
}

type routes struct{ *txRepos }

func (r routes) Create(ctx context.Context, rt *domain.Route) error {
	if err := r.store.fail("routes.create"); err != nil {
		return err
	}
	rt.ID = r.st.nextID()
	stored := *rt
	stored.Stops = nil
	r.st.routes[rt.ID] = stored
	return nil
}

func (r routes) Get(ctx context.Context, id int64) (domain.Route, error) {
	rt, ok := r.st.routes[id]
	if !ok {
		return domain.Route{}, domain.NotFound("route", id)
	}
	return rt, nil
}

func (r routes) GetForUpdate(ctx context.Context, id int64) (domain.Route, error) {
	return r.Get(ctx, id)
}

func (r routes) Update(ctx context.Context, rt domain.Route) error {
	if err := r.store.fail("routes.update"); err != nil {
		return err
	}
	if _, ok := r.st.routes[rt.ID]; !ok {
		return domain.NotFound("route", rt.ID)
	}
	rt.Stops = nil
	r.st.routes[rt.ID] = rt
	return nil
}

func (r routes) Delete(ctx context.Context, id int64) error {
	if err := r.store.fail("routes.delete"); err != nil {
		return err
	}
	if _, ok := r.st.routes[id]; !ok {
		return domain.NotFound("route", id)
	}
	for sid, s := range r.st.stops {
		if s.RouteID != id {
			continue
		}
		for eid, e := range r.st.events {
			if e.StopID == sid {
				delete(r.st.events, eid)
			}
		}
		for iid, in := range r.st.incidents {
			if in.StopID == sid {
				delete(r.st.incidents, iid)
			}
		}
		delete(r.st.stops, sid)
	}
	delete(r.st.routes, id)
	return nil
}

func (r routes) List(ctx context.Context, f ports.RouteFilter) ([]domain.Route, error) {
	out := make([]domain.Route, 0)
	for _, id := range sortedKeys(r.st.routes) {
		rt := r.st.routes[id]
		if f.Status != nil && rt.Status != *f.Status {
			continue
		}
		if f.DriverID != nil && !rt.IsDrivenBy(*f.DriverID) {
			continue
		}
		if f.PlannedDate != nil && !sameDay(rt.PlannedDate, *f.PlannedDate) {
			continue
		}
		out = append(out, rt)
	}
	return out, nil
}

type stops struct{ *txRepos }

func (s stops) CreateMany(ctx context.Context, list []*domain.Stop) error {
	if err := s.store.fail("stops.create"); err != nil {
		return err
	}
	for _, st := range list {
		if _, ok := s.st.routes[st.RouteID]; !ok {
			return domain.NotFound("route", st.RouteID)
		}
		st.ID = s.st.nextID()
		s.st.stops[st.ID] = *st
	}
	return nil
}

func (s stops) Get(ctx context.Context, id int64) (domain.Stop, error) {
	st, ok := s.st.stops[id]
	if !ok {
		return domain.Stop{}, domain.NotFound("stop", id)
	}
	return st, nil
}

func (s stops) ListForRoute(ctx context.Context, routeID int64) ([]domain.Stop, error) {
	out := make([]domain.Stop, 0)
	for _, st := range s.st.stops {
		if st.RouteID == routeID {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b domain.Stop) int { return a.SeqNo - b.SeqNo })
	return out, nil
}

func (s stops) Update(ctx context.Context, st domain.Stop) error {
	if err := s.store.fail("stops.update"); err != nil {
		return err
	}
	if _, ok := s.st.stops[st.ID]; !ok {
		return domain.NotFound("stop", st.ID)
	}
	s.st.stops[st.ID] = st
	return nil
}

func (s stops) Delete(ctx context.Context, id int64) error {
	if err := s.store.fail("stops.delete"); err != nil {
		return err
	}
	if _, ok := s.st.stops[id]; !ok {
		return domain.NotFound("stop", id)
	}
	for eid, e := range s.st.events {
		if e.StopID == id {
			delete(s.st.events, eid)
		}
	}
	for iid, in := range s.st.incidents {
		if in.StopID == id {
			delete(s.st.incidents, iid)
		}
	}
	delete(s.st.stops, id)
	return nil
}

type stopEvents struct{ *txRepos }

func (e stopEvents) Append(ctx context.Context, ev *domain.StopEvent) error {
	if err := e.store.fail("events.append"); err != nil {
		return err
	}
	ev.ID = e.st.nextID()
	e.st.events[ev.ID] = *ev
	return nil
}

func (e stopEvents) ListForStop(ctx context.Context, stopID int64) ([]domain.StopEvent, error) {
	out := make([]domain.StopEvent, 0)
	for _, id := range sortedKeys(e.st.events) {
		if ev := e.st.events[id]; ev.StopID == stopID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type shifts struct{ *txRepos }

func (s shifts) FindOpenShift(ctx context.Context, driverID int64) (domain.Shift, bool, error) {
	for _, id := range sortedKeys(s.st.shifts) {
		sh := s.st.shifts[id]
		if sh.DriverID == driverID && sh.Status == domain.ShiftOpen {
			return sh, true, nil
		}
	}
	return domain.Shift{}, false, nil
}

func (s shifts) Create(ctx context.Context, sh *domain.Shift) error {
	if sh.Status == domain.ShiftOpen {
		if _, open, _ := s.FindOpenShift(ctx, sh.DriverID); open {
			return domain.ErrShiftAlreadyOpen
		}
	}
	sh.ID = s.st.nextID()
	s.st.shifts[sh.ID] = *sh
	return nil
}

func (s shifts) Update(ctx context.Context, sh domain.Shift) error {
	if _, ok := s.st.shifts[sh.ID]; !ok {
		return domain.NotFound("shift", sh.ID)
	}
	s.st.shifts[sh.ID] = sh
	return nil
}

type users struct{ *txRepos }

func (u users) FindByLogin(ctx context.Context, login string) (domain.User, error) {
	for _, id := range sortedKeys(u.st.users) {
		if usr := u.st.users[id]; usr.Login == login {
			return usr, nil
		}
	}
	return domain.User{}, domain.NotFound("user", login)
}

func (u users) FindByID(ctx context.Context, id int64) (domain.User, error) {
	usr, ok := u.st.users[id]
	if !ok {
		return domain.User{}, domain.NotFound("user", id)
	}
	return usr, nil
}

type incidents struct{ *txRepos }

func (i incidents) Create(ctx context.Context, in *domain.Incident) error {
	if _, ok := i.st.stops[in.StopID]; !ok {
		return domain.NotFound("stop", in.StopID)
	}
	in.ID = i.st.nextID()
	i.st.incidents[in.ID] = *in
	return nil
}

func (i incidents) Get(ctx context.Context, id int64) (domain.Incident, error) {
	in, ok := i.st.incidents[id]
	if !ok {
		return domain.Incident{}, domain.NotFound("incident", id)
	}
	return in, nil
}

func (i incidents) Update(ctx context.Context, in domain.Incident) error {
	if _, ok := i.st.incidents[in.ID]; !ok {
		return domain.NotFound("incident", in.ID)
	}
	i.st.incidents[in.ID] = in
	return nil
}

func (i incidents) List(ctx context.Context, unresolvedOnly bool) ([]domain.Incident, error) {
	out := make([]domain.Incident, 0)
	for _, id := range sortedKeys(i.st.incidents) {
		in := i.st.incidents[id]
		if unresolvedOnly && in.Resolved {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
