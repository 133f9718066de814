package hire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/model"
	"hirewheels/internal/shared/storage"
)

// ============================================================================
// mock Store
// ============================================================================

type mockStore struct {
	hires    map[string]*model.Hire
	vehicles map[string]*model.Vehicle
}

func newMockStore() *mockStore {
	return &mockStore{
		hires:    make(map[string]*model.Hire),
		vehicles: make(map[string]*model.Vehicle),
	}
}

func (m *mockStore) CreateHire(_ context.Context, hire *model.Hire) error {
	cp := *hire
	m.hires[hire.ID] = &cp
	return nil
}

func (m *mockStore) GetHire(_ context.Context, id string) (*model.Hire, error) {
	if h, ok := m.hires[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) ListHires(_ context.Context, filter storage.HireFilter) ([]*model.Hire, error) {
	var out []*model.Hire
	for _, h := range m.hires {
		if filter.UserID != "" && h.UserID != filter.UserID {
			continue
		}
		if filter.VehicleID != "" && h.VehicleID != filter.VehicleID {
			continue
		}
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		cp := *h
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStore) UpdateHireStatus(_ context.Context, id string, status model.HireStatus) error {
	h, ok := m.hires[id]
	if !ok {
		return storage.ErrNotFound
	}
	h.Status = status
	return nil
}

func (m *mockStore) GetVehicle(_ context.Context, id string) (*model.Vehicle, error) {
	if v, ok := m.vehicles[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) SetVehicleAvailable(_ context.Context, id string, available bool) error {
	v, ok := m.vehicles[id]
	if !ok {
		return storage.ErrNotFound
	}
	v.Available = available
	return nil
}

// ============================================================================
// 测试辅助
// ============================================================================

func standardUser() *auth.AuthUser {
	return &auth.AuthUser{ID: "usr-1", Username: "alice", Roles: []model.Role{model.RoleStandard}}
}

func adminUser() *auth.AuthUser {
	return &auth.AuthUser{ID: "usr-admin", Username: "admin", Roles: []model.Role{model.RoleAdmin}}
}

func withUser(req *http.Request, user *auth.AuthUser) *http.Request {
	return req.WithContext(auth.WithAuthUser(req.Context(), user))
}

func seedVehicle(store *mockStore, id string, available bool) {
	store.vehicles[id] = &model.Vehicle{
		ID:          id,
		OwnerID:     "usr-owner",
		Name:        "City Car",
		Type:        model.VehicleTypeCar,
		RatePerHour: 10,
		Available:   available,
		Active:      true,
	}
}

func seedHire(store *mockStore, id, userID, vehicleID string, status model.HireStatus) {
	store.hires[id] = &model.Hire{
		ID:        id,
		UserID:    userID,
		VehicleID: vehicleID,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(2 * time.Hour),
		Status:    status,
	}
}

func createBody(vehicleID string) string {
	start := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(4 * time.Hour).UTC().Format(time.RFC3339)
	return `{"vehicle_id":"` + vehicleID + `","start_time":"` + start + `","end_time":"` + end + `"}`
}

// ============================================================================
// 测试
// ============================================================================

func TestCreate(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedVehicle(store, "veh-1", true)

	req := withUser(httptest.NewRequest("POST", "/api/v1/hires", strings.NewReader(createBody("veh-1"))), standardUser())
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var hire model.Hire
	if err := json.Unmarshal(w.Body.Bytes(), &hire); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if hire.UserID != "usr-1" || hire.Status != model.HireStatusBooked {
		t.Errorf("unexpected hire: %+v", hire)
	}

	// 3 小时 x 10/h
	if hire.TotalAmount < 29.9 || hire.TotalAmount > 30.1 {
		t.Errorf("total_amount = %v, want ~30", hire.TotalAmount)
	}

	// 车辆被占用
	if store.vehicles["veh-1"].Available {
		t.Error("vehicle must be unavailable after booking")
	}
}

func TestCreate_VehicleUnavailable(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedVehicle(store, "veh-1", false)

	req := withUser(httptest.NewRequest("POST", "/api/v1/hires", strings.NewReader(createBody("veh-1"))), standardUser())
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestCreate_VehicleMissing(t *testing.T) {
	h := NewHandler(newMockStore())

	req := withUser(httptest.NewRequest("POST", "/api/v1/hires", strings.NewReader(createBody("veh-missing"))), standardUser())
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCreate_BadTimeRange(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedVehicle(store, "veh-1", true)

	start := time.Now().Add(4 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	body := `{"vehicle_id":"veh-1","start_time":"` + start + `","end_time":"` + end + `"}`

	req := withUser(httptest.NewRequest("POST", "/api/v1/hires", strings.NewReader(body)), standardUser())
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestList_ScopedToUser(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedHire(store, "hire-1", "usr-1", "veh-1", model.HireStatusBooked)
	seedHire(store, "hire-2", "usr-2", "veh-2", model.HireStatusActive)

	// 普通用户只看到自己的
	req := withUser(httptest.NewRequest("GET", "/api/v1/hires", nil), standardUser())
	w := httptest.NewRecorder()
	h.List(w, req)
	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 {
		t.Errorf("standard user: count = %d, want 1", resp.Count)
	}

	// 管理员看到全部
	req = withUser(httptest.NewRequest("GET", "/api/v1/hires", nil), adminUser())
	w = httptest.NewRecorder()
	h.List(w, req)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 2 {
		t.Errorf("admin: count = %d, want 2", resp.Count)
	}
}

func TestGet_Ownership(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedHire(store, "hire-1", "usr-2", "veh-1", model.HireStatusBooked)

	// 他人的记录 → 403
	req := withUser(httptest.NewRequest("GET", "/api/v1/hires/hire-1", nil), standardUser())
	req.SetPathValue("id", "hire-1")
	w := httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}

	// 管理员 → 200
	req = withUser(httptest.NewRequest("GET", "/api/v1/hires/hire-1", nil), adminUser())
	req.SetPathValue("id", "hire-1")
	w = httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", w.Code)
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		from     model.HireStatus
		to       model.HireStatus
		wantCode int
	}{
		{"booked to active", model.HireStatusBooked, model.HireStatusActive, http.StatusOK},
		{"booked to cancelled", model.HireStatusBooked, model.HireStatusCancelled, http.StatusOK},
		{"active to completed", model.HireStatusActive, model.HireStatusCompleted, http.StatusOK},
		{"booked to completed", model.HireStatusBooked, model.HireStatusCompleted, http.StatusConflict},
		{"completed is terminal", model.HireStatusCompleted, model.HireStatusActive, http.StatusConflict},
		{"cancelled is terminal", model.HireStatusCancelled, model.HireStatusActive, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			h := NewHandler(store)
			seedVehicle(store, "veh-1", false)
			seedHire(store, "hire-1", "usr-1", "veh-1", tt.from)

			body := `{"status":"` + string(tt.to) + `"}`
			req := withUser(httptest.NewRequest("PATCH", "/api/v1/hires/hire-1", strings.NewReader(body)), standardUser())
			req.SetPathValue("id", "hire-1")
			w := httptest.NewRecorder()
			h.UpdateStatus(w, req)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}

			if tt.wantCode == http.StatusOK {
				if store.hires["hire-1"].Status != tt.to {
					t.Errorf("status not persisted: %s", store.hires["hire-1"].Status)
				}
				// 终态释放车辆
				if tt.to.Terminal() && !store.vehicles["veh-1"].Available {
					t.Error("vehicle not released on terminal transition")
				}
			}
		})
	}
}
