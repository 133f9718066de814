// Package interaction 互动领域（留言/评价）- HTTP 处理
package interaction

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/model"
)

// Store 互动领域所需的存储接口
type Store interface {
	CreateInteraction(ctx context.Context, in *model.Interaction) error
	ListVehicleInteractions(ctx context.Context, vehicleID string) ([]*model.Interaction, error)

	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
}

// Handler 互动领域 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建互动处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册互动相关路由
//
// 车辆互动列表对未登录用户开放（GET /api/v1/vehicles 前缀
// 在认证白名单内），发表互动需要登录。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/interactions", h.Create)
	mux.HandleFunc("GET /api/v1/vehicles/{id}/interactions", h.ListForVehicle)
}

// ============================================================================
// 请求类型
// ============================================================================

type createRequest struct {
	VehicleID string                `json:"vehicle_id"`
	Kind      model.InteractionKind `json:"kind"`
	Body      string                `json:"body"`
	Rating    int                   `json:"rating"`
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// Create 发表留言或评价
// POST /api/v1/interactions
//
// review 必须带 1-5 的评分，message 不带评分。
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
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	switch req.Kind {
	case model.InteractionKindMessage:
		if req.Rating != 0 {
			writeError(w, http.StatusBadRequest, "messages cannot carry a rating")
			return
		}
	case model.InteractionKindReview:
		if req.Rating < 1 || req.Rating > 5 {
			writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "kind must be message or review")
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

	in := &model.Interaction{
		ID:        generateID("int"),
		UserID:    user.ID,
		VehicleID: vehicle.ID,
		Kind:      req.Kind,
		Body:      req.Body,
		Rating:    req.Rating,
		CreatedAt: time.Now(),
	}

	if err := h.store.CreateInteraction(r.Context(), in); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create interaction")
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

// ListForVehicle 列出车辆的留言和评价
// GET /api/v1/vehicles/{id}/interactions
func (h *Handler) ListForVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.PathValue("id")

	interactions, err := h.store.ListVehicleInteractions(r.Context(), vehicleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list interactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"interactions": interactions,
		"count":        len(interactions),
	})
}
