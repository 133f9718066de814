// Package eventbus 位置事件总线抽象接口
//
// 提供位置事件的发布/订阅能力，当前由 Redis Streams 实现。
// WebSocket 位置网关通过订阅通道向前端实时推送定位。
package eventbus

import (
	"context"
)

// LocationEventBus 位置事件总线接口
type LocationEventBus interface {
	PublishLocation(ctx context.Context, entityID string, event *LocationEvent) error
	GetLocationEvents(ctx context.Context, entityID string, fromID string, count int64) ([]*LocationEvent, error)
	SubscribeLocations(ctx context.Context, entityID string) (<-chan *LocationEvent, error)
	DeleteLocationEvents(ctx context.Context, entityID string) error
}

// EventBus 事件总线组合接口
type EventBus interface {
	LocationEventBus
	Close() error
}
