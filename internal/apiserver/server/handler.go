// Package server 路由配置
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包。
package server

import (
	"net/http"

	"hirewheels/internal/apiserver/account"
	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/apiserver/hire"
	"hirewheels/internal/apiserver/interaction"
	"hirewheels/internal/apiserver/location"
	"hirewheels/internal/apiserver/payment"
	"hirewheels/internal/apiserver/vehicle"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/register                          - 注册
//   - POST /api/v1/auth/verify-email/{username}/{token}   - 邮箱验证
//   - POST /api/v1/auth/login                             - 登录
//   - GET  /api/v1/auth/refresh-token                     - 刷新访问令牌
//   - GET  /api/v1/auth/logout                            - 登出
//   - POST /api/v1/auth/forgot-password                   - 找回密码
//   - POST /api/v1/auth/reset-password/{username}/{token} - 重置密码
//   - GET  /api/v1/auth/me                                - 当前用户
//
// 车辆 (Vehicle):
//   - GET    /api/v1/vehicles       - 列出车辆（公开）
//   - POST   /api/v1/vehicles       - 发布车辆（business|admin）
//   - GET    /api/v1/vehicles/{id}  - 车辆详情（公开）
//   - PUT    /api/v1/vehicles/{id}  - 更新车辆（车主或管理员）
//   - DELETE /api/v1/vehicles/{id}  - 下架车辆（车主或管理员）
//
// 租用 (Hire):
//   - POST  /api/v1/hires      - 预订车辆
//   - GET   /api/v1/hires      - 列出租用记录
//   - GET   /api/v1/hires/{id} - 租用详情
//   - PATCH /api/v1/hires/{id} - 状态迁移
//
// 支付 (Payment):
//   - POST  /api/v1/payments      - 记录支付
//   - GET   /api/v1/payments      - 列出支付
//   - GET   /api/v1/payments/{id} - 支付详情
//   - PATCH /api/v1/payments/{id} - 对账（admin）
//
// 互动 (Interaction):
//   - POST /api/v1/interactions              - 发表留言/评价
//   - GET  /api/v1/vehicles/{id}/interactions - 车辆互动列表（公开）
//
// 位置 (Location):
//   - POST /api/v1/locations            - 上报定位
//   - GET  /api/v1/locations/{entityID} - 最新定位
//
// 账号管理 (Admin):
//   - GET   /api/v1/admin/users             - 列出账号
//   - GET   /api/v1/admin/users/{id}        - 账号详情
//   - PATCH /api/v1/admin/users/{id}/active - 启用/停用账号
//
// WebSocket:
//   - GET /ws/locations/{entityID} - 实时位置推送
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 路由
	authHandler := auth.NewHandler(h.store, h.mailer, h.authCfg)
	authHandler.RegisterRoutes(mux)

	// 车辆接口
	vehicleHandler := vehicle.NewHandler(h.store)
	vehicleHandler.RegisterRoutes(mux)

	// 租用接口
	hireHandler := hire.NewHandler(h.store)
	hireHandler.RegisterRoutes(mux)

	// 支付接口
	paymentHandler := payment.NewHandler(h.store)
	paymentHandler.RegisterRoutes(mux)

	// 互动接口
	interactionHandler := interaction.NewHandler(h.store)
	interactionHandler.RegisterRoutes(mux)

	// 位置接口
	locationHandler := location.NewHandler(h.store, h.locationBus)
	locationHandler.RegisterRoutes(mux)

	// 账号管理接口（仅限管理员）
	accountHandler := account.NewHandler(h.store)
	accountHandler.RegisterRoutes(mux)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authCfg)(apiHandler)

	// 应用 CORS 中间件
	corsHandler := corsMiddleware(authedHandler)

	// 创建顶层路由，WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题）
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /ws/locations/{entityID}", h.locationGateway.HandleWebSocket)
	topMux.Handle("/", corsHandler)

	return topMux
}

// corsMiddleware 添加 CORS 头支持跨域请求
//
// 刷新令牌走跨站 Cookie，必须回显具体 Origin 并开启
// credentials，不能用通配符。
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
