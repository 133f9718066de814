package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/eventbus"
	"hirewheels/internal/shared/model"
)

// ============================================================================
// mock Store / mock bus
// ============================================================================

type mockStore struct {
	locations map[string]*model.Location
	vehicles  map[string]*model.Vehicle
}

func newMockStore() *mockStore {
	return &mockStore{
		locations: make(map[string]*model.Location),
		vehicles:  make(map[string]*model.Vehicle),
	}
}

func (m *mockStore) UpsertLocation(_ context.Context, loc *model.Location) error {
	cp := *loc
	m.locations[loc.EntityID] = &cp
	return nil
}

func (m *mockStore) GetLocation(_ context.Context, entityID string) (*model.Location, error) {
	if loc, ok := m.locations[entityID]; ok {
		cp := *loc
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) GetVehicle(_ context.Context, id string) (*model.Vehicle, error) {
	if v, ok := m.vehicles[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

// recordingBus 记录发布的事件
type recordingBus struct {
	eventbus.NoOpEventBus
	published []*eventbus.LocationEvent
}

func (b *recordingBus) PublishLocation(_ context.Context, _ string, event *eventbus.LocationEvent) error {
	b.published = append(b.published, event)
	return nil
}

// ============================================================================
// 测试辅助
// ============================================================================

func withUser(req *http.Request, roles ...model.Role) *http.Request {
	if len(roles) == 0 {
		roles = []model.Role{model.RoleStandard}
	}
	user := &auth.AuthUser{ID: "usr-1", Username: "alice", Roles: roles}
	return req.WithContext(auth.WithAuthUser(req.Context(), user))
}

func doPing(h *Handler, body string, roles ...model.Role) *httptest.ResponseRecorder {
	req := withUser(httptest.NewRequest("POST", "/api/v1/locations", strings.NewReader(body)), roles...)
	w := httptest.NewRecorder()
	h.Ping(w, req)
	return w
}

// ============================================================================
// 测试
// ============================================================================

func TestPing_SelfDefault(t *testing.T) {
	store := newMockStore()
	bus := &recordingBus{}
	h := NewHandler(store, bus)

	w := doPing(h, `{"latitude":51.5,"longitude":-0.12}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	loc := store.locations["usr-1"]
	if loc == nil || loc.EntityKind != "user" {
		t.Fatalf("location not persisted for self: %+v", loc)
	}

	// 事件已发布
	if len(bus.published) != 1 || bus.published[0].EntityID != "usr-1" {
		t.Errorf("expected one published event for usr-1, got %+v", bus.published)
	}
}

func TestPing_VehicleOwnership(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store, &recordingBus{})
	store.vehicles["veh-1"] = &model.Vehicle{ID: "veh-1", OwnerID: "usr-1", Active: true}
	store.vehicles["veh-2"] = &model.Vehicle{ID: "veh-2", OwnerID: "usr-other", Active: true}

	// 本人车辆 → 200
	if w := doPing(h, `{"entity_id":"veh-1","entity_kind":"vehicle","latitude":51.5,"longitude":-0.12}`); w.Code != http.StatusOK {
		t.Errorf("own vehicle: expected 200, got %d", w.Code)
	}

	// 他人车辆 → 403
	if w := doPing(h, `{"entity_id":"veh-2","entity_kind":"vehicle","latitude":51.5,"longitude":-0.12}`); w.Code != http.StatusForbidden {
		t.Errorf("other vehicle: expected 403, got %d", w.Code)
	}

	// 管理员可上报任何车辆
	if w := doPing(h, `{"entity_id":"veh-2","entity_kind":"vehicle","latitude":51.5,"longitude":-0.12}`, model.RoleAdmin); w.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", w.Code)
	}

	// 未知车辆 → 404
	if w := doPing(h, `{"entity_id":"veh-x","entity_kind":"vehicle","latitude":51.5,"longitude":-0.12}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown vehicle: expected 404, got %d", w.Code)
	}
}

func TestPing_Validation(t *testing.T) {
	h := NewHandler(newMockStore(), &recordingBus{})

	tests := []struct {
		name string
		body string
	}{
		{"bad kind", `{"entity_id":"usr-1","entity_kind":"drone","latitude":0,"longitude":0}`},
		{"latitude out of range", `{"latitude":91,"longitude":0}`},
		{"longitude out of range", `{"latitude":0,"longitude":181}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doPing(h, tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}

	// 冒充他人 → 403
	if w := doPing(h, `{"entity_id":"usr-2","entity_kind":"user","latitude":0,"longitude":0}`); w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestGet(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store, &recordingBus{})
	store.locations["veh-1"] = &model.Location{EntityID: "veh-1", EntityKind: "vehicle", Latitude: 51.5, Longitude: -0.12}

	req := httptest.NewRequest("GET", "/api/v1/locations/veh-1", nil)
	req.SetPathValue("entityID", "veh-1")
	w := httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/locations/veh-x", nil)
	req.SetPathValue("entityID", "veh-x")
	w = httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
