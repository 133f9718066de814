package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"hirewheels/internal/shared/model"
	"hirewheels/internal/shared/storage"
)

// UserStore 用户凭证存储接口
//
// 查询方法在记录不存在时返回 (nil, nil)。
// ReplaceRefreshToken 是单次原子替换：旧令牌不在集合中时
// 返回 storage.ErrNotFound，handler 据此进入复用检测路径。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	AppendRefreshToken(ctx context.Context, id, token string) error
	RemoveRefreshToken(ctx context.Context, id, token string) error
	ReplaceRefreshToken(ctx context.Context, id, oldToken, newToken string) error
	ClearRefreshTokens(ctx context.Context, id string) error

	SetUserVerified(ctx context.Context, id string, at time.Time) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	TouchUserActivity(ctx context.Context, id string) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store  UserStore
	mailer Mailer
	cfg    Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, mailer Mailer, cfg Config) *Handler {
	return &Handler{store: store, mailer: mailer, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/verify-email/{username}/{token}", h.VerifyEmail)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("GET /api/v1/auth/refresh-token", h.Refresh)
	mux.HandleFunc("GET /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("POST /api/v1/auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /api/v1/auth/reset-password/{username}/{token}", h.ResetPassword)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// Business 注册为商家账号（可发布车辆）
	Business bool `json:"business,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
//
// 新账号未验证（verified_at 为空），验证前无法登录。
// 验证链接通过 Mailer 发送；投递失败只记录日志，注册仍然成功。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, password are required")
		return
	}
	if !usernameRegex.MatchString(req.Username) {
		writeError(w, http.StatusBadRequest, "username must be 3-30 characters (letters, digits, - or _)")
		return
	}
	if !emailRegex.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	roles := []model.Role{model.RoleStandard}
	if req.Business {
		roles = append(roles, model.RoleBusiness)
	}

	now := time.Now()
	user := &model.User{
		ID:            generateID("usr"),
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  hash,
		Roles:         roles,
		Active:        true,
		RefreshTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "username or email already registered")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	verifyToken, err := GenerateVerifyToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth.register] GenerateVerifyToken error: %v", err)
	} else if err := h.mailer.SendVerificationEmail(r.Context(), user, verifyToken); err != nil {
		// 邮件投递失败不影响注册结果
		log.Printf("[auth.register] SendVerificationEmail error: %v", err)
	}

	log.Printf("[auth] User registered: %s (%s)", user.Username, user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "registered, check your email to verify your account",
	})
}

// VerifyEmail 邮箱验证
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	token := r.PathValue("token")

	claims, err := ParseVerifyToken(h.cfg, token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or expired verification link")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		log.Printf("[auth.verify] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || user.ID != claims.Subject {
		writeError(w, http.StatusBadRequest, "invalid or expired verification link")
		return
	}
	if user.Verified() {
		writeJSON(w, http.StatusOK, map[string]string{"message": "email already verified"})
		return
	}

	if err := h.store.SetUserVerified(r.Context(), user.ID, time.Now()); err != nil {
		log.Printf("[auth.verify] SetUserVerified error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to verify email")
		return
	}

	log.Printf("[auth] Email verified: %s", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified, you can now log in"})
}

// Login 用户登录
//
// 校验顺序保证未验证/停用账号无论密码对错都拒绝登录。
// 若请求还带着旧的 jwt Cookie（例如上一个会话未登出），旧刷新
// 令牌在同一次登录中移除，避免令牌集合里积累死令牌。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		log.Printf("[auth.login] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !user.Verified() {
		writeError(w, http.StatusUnauthorized, "you must verify your email before logging in")
		return
	}
	if !user.Active {
		writeError(w, http.StatusUnauthorized, "account is deactivated")
		return
	}
	if !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	accessToken, err := GenerateAccessToken(h.cfg, user)
	if err != nil {
		log.Printf("[auth.login] GenerateAccessToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	refreshToken, err := GenerateRefreshToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth.login] GenerateRefreshToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// 旧 Cookie 里的刷新令牌属于被替换的会话，先移除
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := h.store.RemoveRefreshToken(r.Context(), user.ID, cookie.Value); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[auth.login] RemoveRefreshToken error: %v", err)
		}
	}

	if err := h.store.AppendRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		log.Printf("[auth.login] AppendRefreshToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	if err := h.store.TouchUserActivity(r.Context(), user.ID); err != nil {
		log.Printf("[auth.login] TouchUserActivity error: %v", err)
	}

	h.setRefreshCookie(w, refreshToken)
	log.Printf("[auth] User logged in: %s", user.Username)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken})
}

// Refresh 刷新访问令牌（会话刷新协议）
//
// 状态按 Cookie/令牌的有效性逐级判定：
//  1. 无 Cookie             → 401
//  2. 签名无效/已过期        → 403，不触碰持久状态
//  3. 主体无对应凭证记录     → 401
//  4. 令牌已被轮换走（复用） → 撤销该用户全部会话，403
//  5. 有效                  → 轮换刷新令牌（单次原子替换），签发新访问令牌
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	claims, err := ParseRefreshToken(h.cfg, cookie.Value)
	if err != nil {
		writeError(w, http.StatusForbidden, "invalid refresh token")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		log.Printf("[auth.refresh] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	if !user.Active {
		writeError(w, http.StatusUnauthorized, "account is deactivated")
		return
	}

	newRefreshToken, err := GenerateRefreshToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth.refresh] GenerateRefreshToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// 原子替换：失败时旧令牌仍然有效，Cookie 不变
	if err := h.store.ReplaceRefreshToken(r.Context(), user.ID, cookie.Value, newRefreshToken); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// 签名有效但令牌已不在集合中：要么是并发刷新的败者，
			// 要么是被盗令牌的重放。按被盗处理，撤销全部会话。
			log.Printf("[auth.refresh] refresh token reuse detected for user %s, revoking all sessions", user.ID)
			if err := h.store.ClearRefreshTokens(r.Context(), user.ID); err != nil {
				log.Printf("[auth.refresh] ClearRefreshTokens error: %v", err)
			}
			h.clearRefreshCookie(w)
			writeError(w, http.StatusForbidden, "refresh token is no longer valid")
			return
		}
		log.Printf("[auth.refresh] ReplaceRefreshToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to rotate session")
		return
	}

	accessToken, err := GenerateAccessToken(h.cfg, user)
	if err != nil {
		log.Printf("[auth.refresh] GenerateAccessToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setRefreshCookie(w, newRefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken})
}

// Logout 登出
//
// 幂等：无 Cookie、令牌已失效或已被移除时同样返回 204。
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if claims, err := ParseRefreshToken(h.cfg, cookie.Value); err == nil {
		if err := h.store.RemoveRefreshToken(r.Context(), claims.Subject, cookie.Value); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[auth.logout] RemoveRefreshToken error: %v", err)
		}
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword 发送密码重置邮件
//
// 无论账号是否存在都返回 200，避免账号枚举。
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.forgot] GetUserByEmail error: %v", err)
	}
	if user != nil {
		if token, err := GenerateResetToken(h.cfg, user.ID); err != nil {
			log.Printf("[auth.forgot] GenerateResetToken error: %v", err)
		} else if err := h.mailer.SendPasswordResetEmail(r.Context(), user, token); err != nil {
			log.Printf("[auth.forgot] SendPasswordResetEmail error: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "if the account exists, a reset link has been sent",
	})
}

// ResetPassword 重置密码
//
// 重置成功后撤销该用户的全部刷新令牌（所有设备强制重新登录）。
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	token := r.PathValue("token")

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	claims, err := ParseResetToken(h.cfg, token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or expired reset link")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		log.Printf("[auth.reset] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || user.ID != claims.Subject {
		writeError(w, http.StatusBadRequest, "invalid or expired reset link")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.reset] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		log.Printf("[auth.reset] UpdateUserPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}
	if err := h.store.ClearRefreshTokens(r.Context(), user.ID); err != nil {
		log.Printf("[auth.reset] ClearRefreshTokens error: %v", err)
	}

	log.Printf("[auth] Password reset: %s", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated, please log in"})
}

// Me 获取当前用户信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ============================================================================
// Cookie
// ============================================================================

// setRefreshCookie 写入刷新令牌 Cookie
//
// SameSite=None 允许跨站前端携带；Secure 由配置决定，
// 生产部署（TLS）必须开启。
func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(h.cfg.RefreshTokenTTL.Seconds()),
	})
}

// clearRefreshCookie 清除刷新令牌 Cookie
func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminUsername 且数据库中不存在该用户，则自动创建
// 一个已验证的管理员账号。
func EnsureAdminUser(store UserStore, adminUsername, adminEmail, adminPassword string) error {
	if adminUsername == "" || adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByUsername(ctx, adminUsername)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminUsername, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:            generateID("usr"),
		Username:      adminUsername,
		Email:         adminEmail,
		PasswordHash:  hash,
		Roles:         []model.Role{model.RoleAdmin},
		VerifiedAt:    &now,
		Active:        true,
		RefreshTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminUsername, user.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
)

// generateID 生成带前缀的唯一标识符
func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
