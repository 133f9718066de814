// Package location 位置领域 - HTTP 处理
//
// 位置定位走双写：最新一条 upsert 进 Mongo（查询用），
// 同时发布到 Redis Streams 位置事件总线（WebSocket 推送用）。
// 事件发布失败不影响定位接口的成功返回。
package location

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/eventbus"
	"hirewheels/internal/shared/model"
)

// Store 位置领域所需的存储接口
type Store interface {
	UpsertLocation(ctx context.Context, loc *model.Location) error
	GetLocation(ctx context.Context, entityID string) (*model.Location, error)

	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
}

// Handler 位置领域 HTTP 处理器
type Handler struct {
	store Store
	bus   eventbus.LocationEventBus
}

// NewHandler 创建位置处理器
func NewHandler(store Store, bus eventbus.LocationEventBus) *Handler {
	return &Handler{store: store, bus: bus}
}

// RegisterRoutes 注册位置相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/locations", h.Ping)
	mux.HandleFunc("GET /api/v1/locations/{entityID}", h.Get)
}

// ============================================================================
// 请求类型
// ============================================================================

type pingRequest struct {
	// EntityID 定位目标：本人（留空）或本人名下车辆
	EntityID   string  `json:"entity_id"`
	EntityKind string  `json:"entity_kind"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// Ping 上报定位
// POST /api/v1/locations
//
// 默认上报本人位置；上报车辆位置时必须是车主或管理员。
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EntityID == "" {
		req.EntityID = user.ID
		req.EntityKind = "user"
	}
	switch req.EntityKind {
	case "user":
		if req.EntityID != user.ID {
			writeError(w, http.StatusForbidden, "cannot report another user's location")
			return
		}
	case "vehicle":
		vehicle, err := h.store.GetVehicle(r.Context(), req.EntityID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get vehicle")
			return
		}
		if vehicle == nil || !vehicle.Active {
			writeError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		if vehicle.OwnerID != user.ID && !user.HasRole(model.RoleAdmin) {
			writeError(w, http.StatusForbidden, "not the vehicle owner")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "entity_kind must be user or vehicle")
		return
	}

	now := time.Now()
	loc := &model.Location{
		EntityID:   req.EntityID,
		EntityKind: req.EntityKind,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		RecordedAt: now,
		UpdatedAt:  now,
	}
	if !loc.ValidCoordinates() {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	if err := h.store.UpsertLocation(r.Context(), loc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save location")
		return
	}

	// 发布到事件总线：尽力而为，失败只记日志
	event := &eventbus.LocationEvent{
		EntityID:   loc.EntityID,
		EntityKind: loc.EntityKind,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		RecordedAt: loc.RecordedAt,
	}
	if err := h.bus.PublishLocation(r.Context(), loc.EntityID, event); err != nil {
		log.Printf("[location] failed to publish location event for %s: %v", loc.EntityID, err)
	}

	writeJSON(w, http.StatusOK, loc)
}

// Get 查询实体的最新定位
// GET /api/v1/locations/{entityID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	loc, err := h.store.GetLocation(r.Context(), r.PathValue("entityID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "no location recorded")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}
