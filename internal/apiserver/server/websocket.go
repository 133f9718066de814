// Package server WebSocket 位置网关
//
// 位置网关提供实时位置推送能力，前端可实时跟踪某个用户
// 或车辆的定位。使用 WebSocket 协议，支持双向通信。
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hirewheels/internal/shared/eventbus"
)

// upgrader WebSocket 升级器配置
//
// 配置说明：
//   - ReadBufferSize: 读缓冲区大小
//   - WriteBufferSize: 写缓冲区大小
//   - CheckOrigin: 跨域检查（当前允许所有来源，生产环境应限制）
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LocationGateway WebSocket 位置网关
//
// 位置网关负责：
//   - 管理 WebSocket 连接
//   - 通过 Redis Streams 接收实时位置事件
//   - 将定位推送给订阅同一实体的客户端
//
// 使用场景：
//   - 前端地图实时跟踪租用中的车辆
//   - 车主跟踪自己车辆的位置
type LocationGateway struct {
	bus     eventbus.LocationEventBus
	metrics *Metrics

	clients map[string]map[*websocket.Conn]bool // 按 EntityID 索引的客户端连接
	mu      sync.RWMutex                        // 保护 clients 映射
}

// NewLocationGateway 创建位置网关实例
func NewLocationGateway(bus eventbus.LocationEventBus, metrics *Metrics) *LocationGateway {
	return &LocationGateway{
		bus:     bus,
		metrics: metrics,
		clients: make(map[string]map[*websocket.Conn]bool),
	}
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws/locations/{entityID}
//
// 路径参数：
//   - entityID: 用户或车辆 ID
//
// 查询参数：
//   - from: 起始 Stream ID（可选），用于断线重连恢复
//
// 推送消息格式：
//
//	位置消息：{"type": "location", "data": {...}}
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
func (g *LocationGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	entityID := r.PathValue("entityID")
	if entityID == "" {
		http.Error(w, "entity_id required", http.StatusBadRequest)
		return
	}

	fromID := r.URL.Query().Get("from")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	g.addClient(entityID, conn)
	defer g.removeClient(entityID, conn)

	if g.metrics != nil {
		g.metrics.WSConnectionOpened()
		defer g.metrics.WSConnectionClosed()
	}

	log.Printf("[ws] client connected for entity %s", entityID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go g.readPump(conn, cancel)
	g.writePump(ctx, conn, entityID, fromID)
}

// addClient 添加客户端连接
func (g *LocationGateway) addClient(entityID string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.clients[entityID] == nil {
		g.clients[entityID] = make(map[*websocket.Conn]bool)
	}
	g.clients[entityID][conn] = true
}

// removeClient 移除客户端连接
//
// 从指定实体的客户端列表中移除连接。
// 如果该实体没有其他连接，则清理整个条目。
func (g *LocationGateway) removeClient(entityID string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if clients, ok := g.clients[entityID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(g.clients, entityID)
		}
	}
}

// ClientCount 返回订阅某实体的客户端数量
func (g *LocationGateway) ClientCount(entityID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients[entityID])
}

// readPump 读取客户端消息
//
// 在独立 goroutine 中运行，处理客户端发送的消息：
//   - 心跳消息（ping）：响应 pong
//   - 连接关闭：取消上下文
func (g *LocationGateway) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		var req map[string]interface{}
		if json.Unmarshal(msg, &req) == nil {
			if req["type"] == "ping" {
				conn.WriteJSON(map[string]string{"type": "pong"})
				if g.metrics != nil {
					g.metrics.RecordWSMessage("out", "pong")
				}
			}
		}
	}
}

// writePump 向客户端推送位置事件
//
// 首先回放断点之后的历史定位（带 from 参数的重连），
// 然后订阅 Redis Streams 实时事件流：
//   - 收到位置事件立即推送
//   - 每 30s 发送 ping 保持连接
//   - 事件通道关闭或上下文取消时退出
func (g *LocationGateway) writePump(ctx context.Context, conn *websocket.Conn, entityID, fromID string) {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	// 断线重连：回放 fromID 之后的历史定位
	if fromID != "" {
		events, err := g.bus.GetLocationEvents(ctx, entityID, fromID, 100)
		if err != nil {
			log.Printf("[ws] failed to replay location events: %v", err)
		}
		for _, event := range events {
			if !g.send(conn, event) {
				return
			}
		}
	}

	eventCh, err := g.bus.SubscribeLocations(ctx, entityID)
	if err != nil {
		log.Printf("[ws] failed to subscribe to location stream: %v", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if !g.send(conn, event) {
				return
			}
		}
	}
}

// send 推送单条位置事件，失败返回 false
func (g *LocationGateway) send(conn *websocket.Conn, event *eventbus.LocationEvent) bool {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	msg := map[string]interface{}{
		"type": "location",
		"data": event,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write error: %v", err)
		return false
	}
	if g.metrics != nil {
		g.metrics.RecordWSMessage("out", "location")
	}
	return true
}
