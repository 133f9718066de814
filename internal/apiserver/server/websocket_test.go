// Package server WebSocket 位置网关单元测试
//
// # 测试分组
//
// ## 客户端连接管理
//   - TestAddRemoveClient: 添加/移除单个客户端
//   - TestAddRemoveClient_MultipleClients: 同一实体多客户端管理
//   - TestRemoveClient_CleanupEmptyEntity: 最后一个客户端移除后清理条目
//
// ## WebSocket 集成（使用 httptest + gorilla/websocket）
//   - TestHandleWebSocket_StreamsEvents: 订阅模式下推送实时位置
//   - TestHandleWebSocket_Replay: 带 from 参数时回放历史定位
//   - TestHandleWebSocket_PingPong: 心跳消息处理
//
// # 使用的 Mock
//   - mockLocationBus: 实现 eventbus.LocationEventBus 接口
package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hirewheels/internal/shared/eventbus"
)

// ============================================================================
// Mock 实现
// ============================================================================

// mockLocationBus 模拟 LocationEventBus 接口
//
// 可通过 EventCh 字段控制 SubscribeLocations 返回的通道，
// History 控制 GetLocationEvents 的回放内容。
type mockLocationBus struct {
	EventCh chan *eventbus.LocationEvent
	History []*eventbus.LocationEvent

	mu             sync.Mutex
	SubscribeCalls []string
}

func newMockLocationBus() *mockLocationBus {
	return &mockLocationBus{EventCh: make(chan *eventbus.LocationEvent, 8)}
}

func (m *mockLocationBus) PublishLocation(_ context.Context, _ string, event *eventbus.LocationEvent) error {
	m.EventCh <- event
	return nil
}

func (m *mockLocationBus) GetLocationEvents(_ context.Context, _ string, _ string, _ int64) ([]*eventbus.LocationEvent, error) {
	return m.History, nil
}

func (m *mockLocationBus) SubscribeLocations(_ context.Context, entityID string) (<-chan *eventbus.LocationEvent, error) {
	m.mu.Lock()
	m.SubscribeCalls = append(m.SubscribeCalls, entityID)
	m.mu.Unlock()
	return m.EventCh, nil
}

func (m *mockLocationBus) DeleteLocationEvents(_ context.Context, _ string) error {
	return nil
}

// ============================================================================
// 测试辅助
// ============================================================================

func newTestGateway() (*LocationGateway, *mockLocationBus) {
	bus := newMockLocationBus()
	return NewLocationGateway(bus, nil), bus
}

// dialGateway 启动测试服务器并建立 WebSocket 连接
func dialGateway(t *testing.T, g *LocationGateway, entityID, query string) (*websocket.Conn, func()) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/locations/{entityID}", g.HandleWebSocket)
	srv := httptest.NewServer(mux)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/locations/" + entityID + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

type wsMessage struct {
	Type string                  `json:"type"`
	Data *eventbus.LocationEvent `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

// ============================================================================
// 连接管理测试
// ============================================================================

func TestAddRemoveClient(t *testing.T) {
	g, _ := newTestGateway()
	conn := &websocket.Conn{}

	g.addClient("veh-1", conn)
	if g.ClientCount("veh-1") != 1 {
		t.Errorf("count = %d, want 1", g.ClientCount("veh-1"))
	}

	g.removeClient("veh-1", conn)
	if g.ClientCount("veh-1") != 0 {
		t.Errorf("count = %d, want 0", g.ClientCount("veh-1"))
	}
}

func TestAddRemoveClient_MultipleClients(t *testing.T) {
	g, _ := newTestGateway()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	g.addClient("veh-1", conn1)
	g.addClient("veh-1", conn2)
	if g.ClientCount("veh-1") != 2 {
		t.Errorf("count = %d, want 2", g.ClientCount("veh-1"))
	}

	g.removeClient("veh-1", conn1)
	if g.ClientCount("veh-1") != 1 {
		t.Errorf("count = %d, want 1", g.ClientCount("veh-1"))
	}
}

func TestRemoveClient_CleanupEmptyEntity(t *testing.T) {
	g, _ := newTestGateway()
	conn := &websocket.Conn{}

	g.addClient("veh-1", conn)
	g.removeClient("veh-1", conn)

	g.mu.RLock()
	_, exists := g.clients["veh-1"]
	g.mu.RUnlock()
	if exists {
		t.Error("empty entity entry not cleaned up")
	}
}

// ============================================================================
// WebSocket 集成测试
// ============================================================================

func TestHandleWebSocket_StreamsEvents(t *testing.T) {
	g, bus := newTestGateway()
	conn, cleanup := dialGateway(t, g, "veh-1", "")
	defer cleanup()

	event := &eventbus.LocationEvent{
		EntityID:   "veh-1",
		EntityKind: "vehicle",
		Latitude:   51.5,
		Longitude:  -0.12,
		RecordedAt: time.Now(),
	}
	bus.EventCh <- event

	msg := readMessage(t, conn)
	if msg.Type != "location" {
		t.Fatalf("type = %q, want location", msg.Type)
	}
	if msg.Data.EntityID != "veh-1" || msg.Data.Latitude != 51.5 {
		t.Errorf("unexpected event: %+v", msg.Data)
	}
}

func TestHandleWebSocket_Replay(t *testing.T) {
	g, bus := newTestGateway()
	bus.History = []*eventbus.LocationEvent{
		{ID: "1-0", EntityID: "veh-1", Latitude: 51.1},
		{ID: "2-0", EntityID: "veh-1", Latitude: 51.2},
	}

	conn, cleanup := dialGateway(t, g, "veh-1", "?from=0-0")
	defer cleanup()

	first := readMessage(t, conn)
	second := readMessage(t, conn)
	if first.Data.Latitude != 51.1 || second.Data.Latitude != 51.2 {
		t.Errorf("replay out of order: %+v, %+v", first.Data, second.Data)
	}
}

func TestHandleWebSocket_PingPong(t *testing.T) {
	g, _ := newTestGateway()
	conn, cleanup := dialGateway(t, g, "veh-1", "")
	defer cleanup()

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]string
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if resp["type"] != "pong" {
		t.Errorf("response = %v, want pong", resp)
	}
}
