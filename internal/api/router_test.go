package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
	"waste-dispatch-service/internal/adapters/memory"
	"waste-dispatch-service/internal/adapters/metrics"
	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/auth"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	reg     *prometheus.Registry
	admin   string
	driver  string
	other   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	store.AddUser(domain.User{ID: 1, Login: "admin", Role: domain.RoleAdmin})
	store.AddUser(domain.User{ID: 2, Login: "ivanov", Role: domain.RoleDriver})
	store.AddUser(domain.User{ID: 3, Login: "petrov", Role: domain.RoleDriver})
	for id, w := range map[int64]float64{10: 90, 11: 20} {
		weight := w
		store.AddPoint(domain.CollectionPoint{ID: id, Address: "point", Capacity: 100})
		store.AddOrder(domain.DisposalOrder{PointID: id, ContainerCapacity: 10, Weight: &weight})
	}

	now := func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	tokens := auth.NewTokenService("0123456789abcdef-test", time.Hour)
	httpMetrics := metrics.NewHTTPCollector()
	reg := prometheus.NewRegistry()
	require.NoError(t, httpMetrics.Register(reg))

	s := &testServer{
		store: store,
		reg:   reg,
		handler: NewRouter(Deps{
			Dispatcher:  services.NewDispatcher(store, services.WithClock(now)),
			Tokens:      tokens,
			Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
			HTTPMetrics: httpMetrics,
		}),
	}

	var err error
	s.admin, err = tokens.Issue("admin", domain.RoleAdmin)
	require.NoError(t, err)
	s.driver, err = tokens.Issue("ivanov", domain.RoleDriver)
	require.NoError(t, err)
	s.other, err = tokens.Issue("petrov", domain.RoleDriver)
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/routes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/routes", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/routes", s.driver, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/shifts/open", s.admin, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouteLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/routes/auto-generate", s.admin, `{"planned_date":"2026-03-03"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	route := decode[dto.RouteResponse](t, rr)
	assert.Equal(t, "2026-03-03", route.PlannedDate)
	assert.Equal(t, "planned", route.Status)
	require.Len(t, route.Stops, 1)
	assert.Equal(t, int64(10), *route.Stops[0].PointID)

	routePath := "/api/routes/" + itoa(route.ID)

	rr = s.do(t, http.MethodPut, routePath+"/assign", s.admin, map[string]any{"driver_id": 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPut, routePath+"/start", s.driver, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "no_open_shift", decode[map[string]string](t, rr)["code"])

	rr = s.do(t, http.MethodPost, "/api/shifts/open", s.driver, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPut, routePath+"/start", s.other, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPut, routePath+"/start", s.driver, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "in_progress", decode[dto.RouteResponse](t, rr).Status)

	stopPath := routePath + "/stops/" + itoa(route.Stops[0].ID)
	rr = s.do(t, http.MethodPost, stopPath+"/events", s.driver, map[string]any{"type": "arrived", "comment": "gate open"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "arrived", decode[dto.StopEventResponse](t, rr).Type)

	rr = s.do(t, http.MethodPut, stopPath, s.driver, map[string]any{"status": "done", "actual_capacity": 8})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	done := decode[dto.RouteResponse](t, rr)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, 8, *done.Stops[0].ActualCapacity)

	rr = s.do(t, http.MethodGet, "/api/stops/"+itoa(route.Stops[0].ID)+"/events", s.admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	events := decode[dto.ListStopEventResponse](t, rr).Events
	require.Len(t, events, 2)
	assert.Equal(t, "done", events[1].Type)

	rr = s.do(t, http.MethodGet, "/api/routes/my?status=completed", s.driver, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[dto.ListRouteResponse](t, rr).Routes, 1)

	series, err := testutil.GatherAndCount(s.reg, "waste_dispatch_http_requests_total")
	require.NoError(t, err)
	assert.Greater(t, series, 3)
}

func TestGenerateWhenEveryPointIsRouted(t *testing.T) {
	s := newTestServer(t)

	// threshold picks point 10, then the fallback takes point 11
	for range 2 {
		rr := s.do(t, http.MethodPost, "/api/routes/auto-generate", s.admin, nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := s.do(t, http.MethodPost, "/api/routes/auto-generate", s.admin, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "all_candidates_locked", decode[map[string]string](t, rr)["code"])
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"unknown field", http.MethodPost, "/api/routes/auto-generate", "", `{"date":"2026-03-03"}`},
		{"bad date", http.MethodPost, "/api/routes/auto-generate", "", `{"planned_date":"03/03/2026"}`},
		{"trailing object", http.MethodPost, "/api/routes/auto-generate", "", `{}{}`},
		{"bad id", http.MethodGet, "/api/routes/abc", "", nil},
		{"bad stop status", http.MethodPut, "/api/routes/1/stops/1", "driver", map[string]any{"status": "lost"}},
		{"bad incident type", http.MethodPost, "/api/incidents", "driver", map[string]any{"route_id": 1, "stop_id": 1, "type": "flood"}},
		{"unknown route status", http.MethodGet, "/api/routes?status=paused", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token := s.admin
			if tc.token == "driver" {
				token = s.driver
			}
			rr := s.do(t, tc.method, tc.path, token, tc.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestMissingRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/routes/999", s.admin, nil)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "route_not_found", decode[map[string]string](t, rr)["code"])
}

func TestShiftEndpoints(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/shifts/current", s.driver, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"shift":null}`, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/shifts/open", s.driver, map[string]any{"vehicle_id": 7})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/shifts/open", s.driver, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/shifts/current", s.driver, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cur := decode[dto.CurrentShiftResponse](t, rr)
	require.NotNil(t, cur.Shift)
	assert.Equal(t, int64(7), *cur.Shift.VehicleID)

	rr = s.do(t, http.MethodPost, "/api/shifts/close", s.driver, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "closed", decode[dto.ShiftResponse](t, rr).Status)

	rr = s.do(t, http.MethodPost, "/api/shifts/close", s.driver, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIncidentEndpoints(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/routes/auto-generate", s.admin, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	route := decode[dto.RouteResponse](t, rr)
	rr = s.do(t, http.MethodPut, "/api/routes/"+itoa(route.ID)+"/assign", s.admin, map[string]any{"driver_id": 2})
	require.Equal(t, http.StatusOK, rr.Code)

	report := map[string]any{"route_id": route.ID, "stop_id": route.Stops[0].ID, "type": "access_denied", "description": "gate locked"}
	rr = s.do(t, http.MethodPost, "/api/incidents", s.other, report)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/incidents", s.driver, report)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	incident := decode[dto.IncidentResponse](t, rr)

	rr = s.do(t, http.MethodGet, "/api/incidents?unresolved=true", s.admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[dto.ListIncidentResponse](t, rr).Incidents, 1)

	rr = s.do(t, http.MethodPost, "/api/incidents/"+itoa(incident.ID)+"/resolve", s.admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[dto.IncidentResponse](t, rr).Resolved)

	rr = s.do(t, http.MethodPost, "/api/incidents/"+itoa(incident.ID)+"/resolve", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/incidents?unresolved=true", s.admin, nil)
	assert.Empty(t, decode[dto.ListIncidentResponse](t, rr).Incidents)
}

func TestCancelAndDelete(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/routes/auto-generate", s.admin, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	route := decode[dto.RouteResponse](t, rr)
	path := "/api/routes/" + itoa(route.ID)

	rr = s.do(t, http.MethodPost, path+"/cancel", s.admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cancelled", decode[dto.RouteResponse](t, rr).Status)

	p, ok := s.store.Point(10)
	require.True(t, ok)
	assert.False(t, p.Locked)

	rr = s.do(t, http.MethodDelete, path, s.admin, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(t, http.MethodGet, path, s.admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestManualRoutePlanning(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/routes", s.driver, map[string]any{"planned_date": "2026-03-04"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/routes", s.admin, map[string]any{"planned_date": "04.03.2026"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/routes", s.admin, map[string]any{"planned_date": "2026-03-04", "vehicle_id": 7})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	route := decode[dto.RouteResponse](t, rr)
	assert.Equal(t, "2026-03-04", route.PlannedDate)
	assert.Equal(t, "planned", route.Status)
	assert.Empty(t, route.Stops)

	routePath := "/api/routes/" + itoa(route.ID)
	stopsPath := routePath + "/planned-stops"

	rr = s.do(t, http.MethodPost, stopsPath, s.admin, map[string]any{"point_id": 10, "expected_capacity": 40})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = s.do(t, http.MethodPost, stopsPath, s.admin, map[string]any{"address": "Depot gate"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = s.do(t, http.MethodPost, stopsPath, s.admin, map[string]any{"point_id": 11})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	route = decode[dto.RouteResponse](t, rr)
	require.Len(t, route.Stops, 3)
	assert.Equal(t, "Depot gate", *route.Stops[1].Address)

	rr = s.do(t, http.MethodPost, stopsPath, s.admin, map[string]any{"point_id": 10})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "point_locked", decode[map[string]string](t, rr)["code"])

	rr = s.do(t, http.MethodPost, stopsPath, s.admin, map[string]any{"point_id": 11, "address": "both"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_stop_target", decode[map[string]string](t, rr)["code"])

	rr = s.do(t, http.MethodPut, stopsPath+"/"+itoa(route.Stops[1].ID), s.admin, map[string]any{"address": "Depot gate 2", "note": "night shift"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "night shift", *decode[dto.RouteResponse](t, rr).Stops[1].Note)

	rr = s.do(t, http.MethodDelete, stopsPath+"/"+itoa(route.Stops[0].ID), s.admin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	route = decode[dto.RouteResponse](t, rr)
	require.Len(t, route.Stops, 2)
	assert.Equal(t, 1, route.Stops[0].SeqNo)
	assert.Equal(t, 2, route.Stops[1].SeqNo)
	p, ok := s.store.Point(10)
	require.True(t, ok)
	assert.False(t, p.Locked)

	rr = s.do(t, http.MethodPut, routePath, s.admin, map[string]any{"planned_date": "2026-03-05", "driver_id": 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[dto.RouteResponse](t, rr)
	assert.Equal(t, "2026-03-05", updated.PlannedDate)
	assert.Equal(t, int64(2), *updated.DriverID)
	assert.Nil(t, updated.VehicleID)

	rr = s.do(t, http.MethodPost, "/api/shifts/open", s.driver, map[string]any{"vehicle_id": 7})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPut, routePath+"/accept", s.admin, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPut, routePath+"/accept", s.driver, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	accepted := decode[dto.RouteResponse](t, rr)
	assert.Equal(t, "in_progress", accepted.Status)
	assert.Equal(t, int64(7), *accepted.VehicleID)

	rr = s.do(t, http.MethodPost, stopsPath, s.admin, map[string]any{"address": "late addition"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_transition", decode[map[string]string](t, rr)["code"])

	rr = s.do(t, http.MethodPut, routePath+"/assign", s.admin, map[string]any{"driver_id": 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(7), *decode[dto.RouteResponse](t, rr).VehicleID)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
