// Package account 账号管理（管理员）- HTTP 处理
package account

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/model"
)

// Store 账号管理所需的存储接口
type Store interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	SetUserActive(ctx context.Context, id string, active bool) error
	ClearRefreshTokens(ctx context.Context, id string) error
}

// Handler 账号管理 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建账号管理处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册账号管理路由（全部仅限管理员）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/users", auth.AdminOnly(h.List))
	mux.HandleFunc("GET /api/v1/admin/users/{id}", auth.AdminOnly(h.Get))
	mux.HandleFunc("PATCH /api/v1/admin/users/{id}/active", auth.AdminOnly(h.SetActive))
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// List 列出全部账号
// GET /api/v1/admin/users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// Get 获取账号详情
// GET /api/v1/admin/users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetActive 启用/停用账号
// PATCH /api/v1/admin/users/{id}/active
//
// 停用同时吊销全部刷新令牌，访问令牌过期后即无法续签。
// 管理员不能停用自己。
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	admin := auth.GetAuthUser(r.Context())
	id := r.PathValue("id")

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if id == admin.ID && !req.Active {
		writeError(w, http.StatusConflict, "cannot deactivate your own account")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.store.SetUserActive(r.Context(), id, req.Active); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if !req.Active {
		if err := h.store.ClearRefreshTokens(r.Context(), id); err != nil {
			log.Printf("[account] failed to revoke sessions for %s: %v", id, err)
		}
	}

	user.Active = req.Active
	writeJSON(w, http.StatusOK, user)
}

// writeJSON 写入 JSON 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError 写入错误响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
