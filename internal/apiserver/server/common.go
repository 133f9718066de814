// Package server 提供 HTTP API 核心基础设施
//
// 本包是 API Server 的装配层，包括：
//   - 路由配置（各领域独立包注册自己的路由）
//   - 认证/指标/CORS 中间件链
//   - WebSocket 位置网关
//   - Prometheus 指标
//
// 文件组织：
//   - common.go: Handler 定义和通用工具函数
//   - handler.go: 路由配置
//   - metrics.go: Prometheus 指标
//   - websocket.go: WebSocket 位置网关
package server

import (
	"encoding/json"
	"net/http"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/shared/eventbus"
	"hirewheels/internal/shared/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域处理器
//   - 管理存储层连接
//   - 协调位置网关和指标
//
// 依赖接口说明（接口隔离原则）：
//   - store: 持久化存储（Mongo）
//   - locationBus: 位置事件总线（Redis Streams，WebSocket 推送）
type Handler struct {
	store       storage.PersistentStore
	locationBus eventbus.LocationEventBus

	authCfg auth.Config
	mailer  auth.Mailer

	// 内部组件
	locationGateway *LocationGateway // WebSocket 位置网关
	metrics         *Metrics         // Prometheus 指标
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, locationBus eventbus.LocationEventBus, authCfg auth.Config, mailer auth.Mailer) *Handler {
	h := &Handler{
		store:       store,
		locationBus: locationBus,
		authCfg:     authCfg,
		mailer:      mailer,
	}
	h.metrics = NewMetrics("api")
	h.locationGateway = NewLocationGateway(locationBus, h.metrics)
	return h
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
// 返回 {"status": "ok"} 表示服务正常运行。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
