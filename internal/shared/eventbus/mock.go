// Package eventbus 事件总线 mock 实现
package eventbus

import (
	"context"
)

// ============================================================================
// NoOpEventBus - 空操作的 EventBus 实现（用于测试）
// ============================================================================

// NoOpEventBus 是一个不做任何操作的 EventBus 实现
type NoOpEventBus struct{}

// NewNoOpEventBus 创建 NoOpEventBus 实例
func NewNoOpEventBus() *NoOpEventBus {
	return &NoOpEventBus{}
}

// Close 关闭事件总线
func (e *NoOpEventBus) Close() error {
	return nil
}

func (e *NoOpEventBus) PublishLocation(ctx context.Context, entityID string, event *LocationEvent) error {
	return nil
}

func (e *NoOpEventBus) GetLocationEvents(ctx context.Context, entityID string, fromID string, count int64) ([]*LocationEvent, error) {
	return []*LocationEvent{}, nil
}

func (e *NoOpEventBus) SubscribeLocations(ctx context.Context, entityID string) (<-chan *LocationEvent, error) {
	ch := make(chan *LocationEvent)
	close(ch)
	return ch, nil
}

func (e *NoOpEventBus) DeleteLocationEvents(ctx context.Context, entityID string) error {
	return nil
}

// 确保 NoOpEventBus 实现了 EventBus 接口
var _ EventBus = (*NoOpEventBus)(nil)
