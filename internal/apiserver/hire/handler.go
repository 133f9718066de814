// Package hire 租用领域 - HTTP 处理
package hire

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/model"
	"hirewheels/internal/shared/storage"
)

// Store 租用领域所需的存储接口
//
// 预订会占用车辆（available=false），终态迁移释放车辆。
type Store interface {
	CreateHire(ctx context.Context, hire *model.Hire) error
	GetHire(ctx context.Context, id string) (*model.Hire, error)
	ListHires(ctx context.Context, filter storage.HireFilter) ([]*model.Hire, error)
	UpdateHireStatus(ctx context.Context, id string, status model.HireStatus) error

	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	SetVehicleAvailable(ctx context.Context, id string, available bool) error
}

// Handler 租用领域 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建租用处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册租用相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/hires", h.Create)
	mux.HandleFunc("GET /api/v1/hires", h.List)
	mux.HandleFunc("GET /api/v1/hires/{id}", h.Get)
	mux.HandleFunc("PATCH /api/v1/hires/{id}", h.UpdateStatus)
}

// ============================================================================
// 请求类型
// ============================================================================

type createRequest struct {
	VehicleID string    `json:"vehicle_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type updateStatusRequest struct {
	Status model.HireStatus `json:"status"`
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// Create 预订车辆
// POST /api/v1/hires
//
// 车辆必须存在且可租；预订成功后车辆被占用。
// 总价 = 租期小时数 x 时租费率。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() || !req.EndTime.After(req.StartTime) {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	vehicle, err := h.store.GetVehicle(r.Context(), req.VehicleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if vehicle == nil || !vehicle.Active {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if !vehicle.Available {
		writeError(w, http.StatusConflict, "vehicle is not available")
		return
	}

	hours := req.EndTime.Sub(req.StartTime).Hours()
	now := time.Now()
	hire := &model.Hire{
		ID:          generateID("hire"),
		UserID:      user.ID,
		VehicleID:   vehicle.ID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      model.HireStatusBooked,
		TotalAmount: hours * vehicle.RatePerHour,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateHire(r.Context(), hire); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create hire")
		return
	}
	if err := h.store.SetVehicleAvailable(r.Context(), vehicle.ID, false); err != nil {
		log.Printf("[hire] failed to mark vehicle %s unavailable: %v", vehicle.ID, err)
	}
	writeJSON(w, http.StatusCreated, hire)
}

// List 列出租用记录
// GET /api/v1/hires
//
// 管理员可见全部并支持 user/vehicle/status 筛选，
// 普通用户只能看到自己的记录。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	filter := storage.HireFilter{
		VehicleID: r.URL.Query().Get("vehicle"),
		Status:    model.HireStatus(r.URL.Query().Get("status")),
	}
	if user.HasRole(model.RoleAdmin) {
		filter.UserID = r.URL.Query().Get("user")
	} else {
		filter.UserID = user.ID
	}

	hires, err := h.store.ListHires(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list hires")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hires": hires,
		"count": len(hires),
	})
}

// Get 获取租用详情
// GET /api/v1/hires/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	hire, err := h.store.GetHire(r.Context(), r.PathValue("id"))
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
	writeJSON(w, http.StatusOK, hire)
}

// UpdateStatus 租用状态迁移
// PATCH /api/v1/hires/{id}
//
// 合法迁移：booked → active|cancelled，active → completed|cancelled。
// 进入终态时释放车辆。
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hire, err := h.store.GetHire(r.Context(), r.PathValue("id"))
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
	if !hire.Status.CanTransition(req.Status) {
		writeError(w, http.StatusConflict, "invalid status transition")
		return
	}

	if err := h.store.UpdateHireStatus(r.Context(), hire.ID, req.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update hire")
		return
	}
	if req.Status.Terminal() {
		if err := h.store.SetVehicleAvailable(r.Context(), hire.VehicleID, true); err != nil {
			log.Printf("[hire] failed to release vehicle %s: %v", hire.VehicleID, err)
		}
	}

	hire.Status = req.Status
	hire.UpdatedAt = time.Now()
	writeJSON(w, http.StatusOK, hire)
}
