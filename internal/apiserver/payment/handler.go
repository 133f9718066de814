// Package payment 支付领域 - HTTP 处理
package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/model"
	"hirewheels/internal/shared/storage"
)

// Store 支付领域所需的存储接口
type Store interface {
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, filter storage.PaymentFilter) ([]*model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error

	GetHire(ctx context.Context, id string) (*model.Hire, error)
}

// Handler 支付领域 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建支付处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册支付相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments", h.Create)
	mux.HandleFunc("GET /api/v1/payments", h.List)
	mux.HandleFunc("GET /api/v1/payments/{id}", h.Get)
	mux.HandleFunc("PATCH /api/v1/payments/{id}", auth.AdminOnly(h.UpdateStatus))
}

// ============================================================================
// 请求类型
// ============================================================================

type createRequest struct {
	HireID    string              `json:"hire_id"`
	Amount    float64             `json:"amount"`
	Method    model.PaymentMethod `json:"method"`
	Reference string              `json:"reference"`
}

type updateStatusRequest struct {
	Status model.PaymentStatus `json:"status"`
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// Create 记录租用支付
// POST /api/v1/payments
//
// 支付必须挂在本人的租用记录上。卡/钱包支付进入 pending
// 等待对账，现金支付直接记为 completed。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HireID == "" {
		writeError(w, http.StatusBadRequest, "hire_id is required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if !model.ValidPaymentMethod(req.Method) {
		writeError(w, http.StatusBadRequest, "invalid payment method")
		return
	}

	hire, err := h.store.GetHire(r.Context(), req.HireID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get hire")
		return
	}
	if hire == nil {
		writeError(w, http.StatusNotFound, "hire not found")
		return
	}
	if hire.UserID != user.ID && !user.HasRole(model.RoleAdmin) {
		writeError(w, http.StatusForbidden, "not your hire")
		return
	}

	status := model.PaymentStatusPending
	if req.Method == model.PaymentMethodCash {
		status = model.PaymentStatusCompleted
	}

	now := time.Now()
	payment := &model.Payment{
		ID:        generateID("pay"),
		HireID:    hire.ID,
		UserID:    hire.UserID,
		Amount:    req.Amount,
		Method:    req.Method,
		Status:    status,
		Reference: req.Reference,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.CreatePayment(r.Context(), payment); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create payment")
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// List 列出支付记录
// GET /api/v1/payments
//
// 管理员可见全部并支持 user/hire 筛选，普通用户只见自己的。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	filter := storage.PaymentFilter{
		HireID: r.URL.Query().Get("hire"),
	}
	if user.HasRole(model.RoleAdmin) {
		filter.UserID = r.URL.Query().Get("user")
	} else {
		filter.UserID = user.ID
	}

	payments, err := h.store.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"count":    len(payments),
	})
}

// Get 获取支付详情
// GET /api/v1/payments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	payment, err := h.store.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get payment")
		return
	}
	if payment == nil {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}
	if payment.UserID != user.ID && !user.HasRole(model.RoleAdmin) {
		writeError(w, http.StatusForbidden, "not your payment")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// UpdateStatus 对账：管理员标记支付结果
// PATCH /api/v1/payments/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case model.PaymentStatusCompleted, model.PaymentStatusFailed:
	default:
		writeError(w, http.StatusBadRequest, "status must be completed or failed")
		return
	}

	payment, err := h.store.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get payment")
		return
	}
	if payment == nil {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}
	if payment.Status != model.PaymentStatusPending {
		writeError(w, http.StatusConflict, "payment already settled")
		return
	}

	if err := h.store.UpdatePaymentStatus(r.Context(), payment.ID, req.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update payment")
		return
	}

	payment.Status = req.Status
	payment.UpdatedAt = time.Now()
	writeJSON(w, http.StatusOK, payment)
}
