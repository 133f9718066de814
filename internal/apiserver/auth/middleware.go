package auth

import (
	"log"
	"net/http"
	"strings"

	"hirewheels/internal/shared/model"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/verify-email/",
	"/api/v1/auth/login",
	"/api/v1/auth/refresh-token",
	"/api/v1/auth/logout",
	"/api/v1/auth/forgot-password",
	"/api/v1/auth/reset-password/",
	"/health",
	"/metrics",
	"/ws/",
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// 车辆浏览和评价查看对未登录用户开放
	if method == "GET" && strings.HasPrefix(path, "/api/v1/vehicles") {
		return true
	}
	return false
}

// Middleware 创建访问令牌认证中间件（Auth Gateway）
//
// 校验只涉及签名验证，不做任何 I/O，可水平扩展。
// 错误区分：缺失/畸形的 Authorization 头 → 401，
// 签名无效或已过期 → 403。
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"message":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"message":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			// 解析 JWT
			claims, err := ParseAccessToken(cfg, parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"message":"invalid or expired token"}`, http.StatusForbidden)
				return
			}

			// 注入 auth user 到 context
			user := &AuthUser{
				ID:       claims.Subject,
				Username: claims.Username,
				Roles:    claims.Roles,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// RequireRoles 角色检查中间件
//
// 纯集合交集判定：认证身份的角色集与路由声明的角色集
// 有交集则放行，否则 401。必须在 Middleware 之后执行。
func RequireRoles(allowed ...model.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := GetAuthUser(r.Context())
			if user == nil {
				http.Error(w, `{"message":"not authenticated"}`, http.StatusUnauthorized)
				return
			}
			for _, role := range allowed {
				if user.HasRole(role) {
					next(w, r)
					return
				}
			}
			http.Error(w, `{"message":"insufficient role"}`, http.StatusUnauthorized)
		}
	}
}

// AdminOnly 管理员专属路由中间件
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return RequireRoles(model.RoleAdmin)(next)
}
