package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/model"
	"hirewheels/internal/shared/storage"
)

// ============================================================================
// mock Store
// ============================================================================

type mockStore struct {
	users map[string]*model.User
}

func newMockStore() *mockStore {
	return &mockStore{users: make(map[string]*model.User)}
}

func (m *mockStore) ListUsers(_ context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) SetUserActive(_ context.Context, id string, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Active = active
	return nil
}

func (m *mockStore) ClearRefreshTokens(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.RefreshTokens = []string{}
	return nil
}

// ============================================================================
// 测试辅助
// ============================================================================

func asAdmin(req *http.Request) *http.Request {
	admin := &auth.AuthUser{ID: "usr-admin", Username: "admin", Roles: []model.Role{model.RoleAdmin}}
	return req.WithContext(auth.WithAuthUser(req.Context(), admin))
}

func seedUser(store *mockStore, id string) {
	store.users[id] = &model.User{
		ID:            id,
		Username:      "user-" + id,
		Active:        true,
		RefreshTokens: []string{"tok-1", "tok-2"},
	}
}

// ============================================================================
// 测试
// ============================================================================

func TestList(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedUser(store, "usr-1")
	seedUser(store, "usr-2")

	req := asAdmin(httptest.NewRequest("GET", "/api/v1/admin/users", nil))
	w := httptest.NewRecorder()
	h.List(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

func TestSetActive_DeactivateRevokesSessions(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedUser(store, "usr-1")

	req := asAdmin(httptest.NewRequest("PATCH", "/api/v1/admin/users/usr-1/active",
		strings.NewReader(`{"active":false}`)))
	req.SetPathValue("id", "usr-1")
	w := httptest.NewRecorder()
	h.SetActive(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	u := store.users["usr-1"]
	if u.Active {
		t.Error("user still active")
	}
	if len(u.RefreshTokens) != 0 {
		t.Error("sessions not revoked on deactivation")
	}
}

func TestSetActive_SelfDeactivationBlocked(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedUser(store, "usr-admin")

	req := asAdmin(httptest.NewRequest("PATCH", "/api/v1/admin/users/usr-admin/active",
		strings.NewReader(`{"active":false}`)))
	req.SetPathValue("id", "usr-admin")
	w := httptest.NewRecorder()
	h.SetActive(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestSetActive_UnknownUser(t *testing.T) {
	h := NewHandler(newMockStore())

	req := asAdmin(httptest.NewRequest("PATCH", "/api/v1/admin/users/usr-x/active",
		strings.NewReader(`{"active":true}`)))
	req.SetPathValue("id", "usr-x")
	w := httptest.NewRecorder()
	h.SetActive(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
