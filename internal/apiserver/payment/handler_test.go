package payment

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
	payments map[string]*model.Payment
	hires    map[string]*model.Hire
}

func newMockStore() *mockStore {
	return &mockStore{
		payments: make(map[string]*model.Payment),
		hires:    make(map[string]*model.Hire),
	}
}

func (m *mockStore) CreatePayment(_ context.Context, p *model.Payment) error {
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockStore) GetPayment(_ context.Context, id string) (*model.Payment, error) {
	if p, ok := m.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) ListPayments(_ context.Context, filter storage.PaymentFilter) ([]*model.Payment, error) {
	var out []*model.Payment
	for _, p := range m.payments {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.HireID != "" && p.HireID != filter.HireID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStore) UpdatePaymentStatus(_ context.Context, id string, status model.PaymentStatus) error {
	p, ok := m.payments[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockStore) GetHire(_ context.Context, id string) (*model.Hire, error) {
	if h, ok := m.hires[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, nil
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

func seedHire(store *mockStore, id, userID string) {
	store.hires[id] = &model.Hire{
		ID:          id,
		UserID:      userID,
		VehicleID:   "veh-1",
		Status:      model.HireStatusCompleted,
		TotalAmount: 30,
	}
}

func seedPayment(store *mockStore, id, userID string, status model.PaymentStatus) {
	store.payments[id] = &model.Payment{
		ID:        id,
		HireID:    "hire-1",
		UserID:    userID,
		Amount:    30,
		Method:    model.PaymentMethodCard,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

// ============================================================================
// 测试
// ============================================================================

func TestCreate_CardPending(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedHire(store, "hire-1", "usr-1")

	body := `{"hire_id":"hire-1","amount":30,"method":"card","reference":"txn-123"}`
	req := withUser(httptest.NewRequest("POST", "/api/v1/payments", strings.NewReader(body)), standardUser())
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var p model.Payment
	json.Unmarshal(w.Body.Bytes(), &p)
	if p.Status != model.PaymentStatusPending {
		t.Errorf("card payment status = %s, want pending", p.Status)
	}
	if p.UserID != "usr-1" || p.Reference != "txn-123" {
		t.Errorf("unexpected payment: %+v", p)
	}
}

func TestCreate_CashCompleted(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedHire(store, "hire-1", "usr-1")

	body := `{"hire_id":"hire-1","amount":30,"method":"cash"}`
	req := withUser(httptest.NewRequest("POST", "/api/v1/payments", strings.NewReader(body)), standardUser())
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var p model.Payment
	json.Unmarshal(w.Body.Bytes(), &p)
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("cash payment status = %s, want completed", p.Status)
	}
}

func TestCreate_Validation(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedHire(store, "hire-1", "usr-1")

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"no hire", `{"amount":30,"method":"card"}`, http.StatusBadRequest},
		{"zero amount", `{"hire_id":"hire-1","amount":0,"method":"card"}`, http.StatusBadRequest},
		{"bad method", `{"hire_id":"hire-1","amount":30,"method":"crypto"}`, http.StatusBadRequest},
		{"unknown hire", `{"hire_id":"hire-x","amount":30,"method":"card"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUser(httptest.NewRequest("POST", "/api/v1/payments", strings.NewReader(tt.body)), standardUser())
			w := httptest.NewRecorder()
			h.Create(w, req)
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
		})
	}
}

func TestCreate_OthersHireForbidden(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedHire(store, "hire-1", "usr-2")

	body := `{"hire_id":"hire-1","amount":30,"method":"card"}`
	req := withUser(httptest.NewRequest("POST", "/api/v1/payments", strings.NewReader(body)), standardUser())
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestList_ScopedToUser(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedPayment(store, "pay-1", "usr-1", model.PaymentStatusCompleted)
	seedPayment(store, "pay-2", "usr-2", model.PaymentStatusPending)

	req := withUser(httptest.NewRequest("GET", "/api/v1/payments", nil), standardUser())
	w := httptest.NewRecorder()
	h.List(w, req)
	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 {
		t.Errorf("standard user: count = %d, want 1", resp.Count)
	}

	req = withUser(httptest.NewRequest("GET", "/api/v1/payments", nil), adminUser())
	w = httptest.NewRecorder()
	h.List(w, req)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 2 {
		t.Errorf("admin: count = %d, want 2", resp.Count)
	}
}

func TestUpdateStatus_Settlement(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)
	seedPayment(store, "pay-1", "usr-1", model.PaymentStatusPending)

	req := httptest.NewRequest("PATCH", "/api/v1/payments/pay-1", strings.NewReader(`{"status":"completed"}`))
	req.SetPathValue("id", "pay-1")
	w := httptest.NewRecorder()
	h.UpdateStatus(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.payments["pay-1"].Status != model.PaymentStatusCompleted {
		t.Error("status not persisted")
	}

	// 已结算的支付不能再改
	req = httptest.NewRequest("PATCH", "/api/v1/payments/pay-1", strings.NewReader(`{"status":"failed"}`))
	req.SetPathValue("id", "pay-1")
	w = httptest.NewRecorder()
	h.UpdateStatus(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for settled payment, got %d", w.Code)
	}

	// pending 不是合法目标状态
	seedPayment(store, "pay-2", "usr-1", model.PaymentStatusPending)
	req = httptest.NewRequest("PATCH", "/api/v1/payments/pay-2", strings.NewReader(`{"status":"pending"}`))
	req.SetPathValue("id", "pay-2")
	w = httptest.NewRecorder()
	h.UpdateStatus(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
