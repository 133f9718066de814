// Package vehicle 车辆领域 - HTTP 处理
package vehicle

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/model"
	"hirewheels/internal/shared/storage"
)

// Handler 车辆领域 HTTP 处理器
type Handler struct {
	store storage.VehicleStore // 使用接口类型
}

// NewHandler 创建车辆处理器
func NewHandler(store storage.VehicleStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册车辆相关路由
//
// GET 路由对未登录用户开放（在认证中间件白名单内），
// 写操作要求 business 或 admin 角色。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/vehicles", h.List)
	mux.HandleFunc("GET /api/v1/vehicles/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/vehicles",
		auth.RequireRoles(model.RoleBusiness, model.RoleAdmin)(h.Create))
	mux.HandleFunc("PUT /api/v1/vehicles/{id}",
		auth.RequireRoles(model.RoleBusiness, model.RoleAdmin)(h.Update))
	mux.HandleFunc("DELETE /api/v1/vehicles/{id}",
		auth.RequireRoles(model.RoleBusiness, model.RoleAdmin)(h.Delete))
}

// ============================================================================
// 请求类型
// ============================================================================

type createRequest struct {
	Name         string            `json:"name"`
	Type         model.VehicleType `json:"type"`
	Registration string            `json:"registration"`
	RatePerHour  float64           `json:"rate_per_hour"`
	Description  string            `json:"description"`
}

type updateRequest struct {
	Name        *string            `json:"name"`
	Type        *model.VehicleType `json:"type"`
	RatePerHour *float64           `json:"rate_per_hour"`
	Available   *bool              `json:"available"`
	Description *string            `json:"description"`
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// Create 发布车辆
// POST /api/v1/vehicles
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !model.ValidVehicleType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid vehicle type")
		return
	}
	if req.Registration == "" {
		writeError(w, http.StatusBadRequest, "registration is required")
		return
	}
	if req.RatePerHour <= 0 {
		writeError(w, http.StatusBadRequest, "rate_per_hour must be positive")
		return
	}

	now := time.Now()
	vehicle := &model.Vehicle{
		ID:           generateID("veh"),
		OwnerID:      user.ID,
		Name:         req.Name,
		Type:         req.Type,
		Registration: req.Registration,
		RatePerHour:  req.RatePerHour,
		Available:    true,
		Active:       true,
		Description:  req.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateVehicle(r.Context(), vehicle); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "registration already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create vehicle")
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

// List 列出车辆
// GET /api/v1/vehicles
//
// 支持的查询参数：
//   - type:      按车辆类型筛选 (car|bike|van|truck)
//   - available: "true" 时只返回可租车辆
//   - owner:     按车主筛选
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.VehicleFilter{
		Type:          model.VehicleType(r.URL.Query().Get("type")),
		OnlyAvailable: r.URL.Query().Get("available") == "true",
		OwnerID:       r.URL.Query().Get("owner"),
	}
	if filter.Type != "" && !model.ValidVehicleType(filter.Type) {
		writeError(w, http.StatusBadRequest, "invalid vehicle type")
		return
	}

	vehicles, err := h.store.ListVehicles(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// Get 获取车辆详情
// GET /api/v1/vehicles/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.store.GetVehicle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if vehicle == nil || !vehicle.Active {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// Update 更新车辆
// PUT /api/v1/vehicles/{id}
//
// 仅车主本人或管理员可更新。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	vehicle, err := h.store.GetVehicle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if vehicle == nil || !vehicle.Active {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if !canManage(user, vehicle.OwnerID) {
		writeError(w, http.StatusForbidden, "not the vehicle owner")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		vehicle.Name = *req.Name
	}
	if req.Type != nil {
		if !model.ValidVehicleType(*req.Type) {
			writeError(w, http.StatusBadRequest, "invalid vehicle type")
			return
		}
		vehicle.Type = *req.Type
	}
	if req.RatePerHour != nil {
		if *req.RatePerHour <= 0 {
			writeError(w, http.StatusBadRequest, "rate_per_hour must be positive")
			return
		}
		vehicle.RatePerHour = *req.RatePerHour
	}
	if req.Available != nil {
		vehicle.Available = *req.Available
	}
	if req.Description != nil {
		vehicle.Description = *req.Description
	}
	vehicle.UpdatedAt = time.Now()

	if err := h.store.UpdateVehicle(r.Context(), vehicle); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update vehicle")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// Delete 下架车辆（软删除）
// DELETE /api/v1/vehicles/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	vehicle, err := h.store.GetVehicle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if vehicle == nil || !vehicle.Active {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if !canManage(user, vehicle.OwnerID) {
		writeError(w, http.StatusForbidden, "not the vehicle owner")
		return
	}

	if err := h.store.DeactivateVehicle(r.Context(), vehicle.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete vehicle")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// canManage 车主本人或管理员
func canManage(user *auth.AuthUser, ownerID string) bool {
	return user != nil && (user.ID == ownerID || user.HasRole(model.RoleAdmin))
}
