// Package redis 位置事件总线的 Redis Streams 实现
package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"hirewheels/internal/shared/eventbus"
)

// Store 基于 Redis Streams 的位置事件总线
type Store struct {
	client *redis.Client
}

// NewStoreFromClient 从现有 Redis 客户端创建事件总线实例
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close 关闭连接（连接归 infra 所有，此处为空操作）
func (s *Store) Close() error {
	return nil
}

// PublishLocation 发布位置事件
//
// 使用 XAdd 追加到实体专属 Stream，按 MaxStreamLength 近似裁剪，
// 避免长时间在线的车辆把 Redis 撑爆。
func (s *Store) PublishLocation(ctx context.Context, entityID string, event *eventbus.LocationEvent) error {
	key := eventbus.KeyLocationEvents + entityID

	args := &redis.XAddArgs{
		Stream: key,
		MaxLen: eventbus.MaxStreamLength,
		Approx: true,
		Values: map[string]interface{}{
			"entity_kind": event.EntityKind,
			"latitude":    strconv.FormatFloat(event.Latitude, 'f', -1, 64),
			"longitude":   strconv.FormatFloat(event.Longitude, 'f', -1, 64),
			"recorded_at": event.RecordedAt.Format(time.RFC3339Nano),
		},
	}

	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish location event: %w", err)
	}

	log.Printf("[Redis/EventBus] Published location: %s seq=%s", entityID, id)
	return nil
}

// GetLocationEvents 获取位置事件列表（断线重连恢复用）
func (s *Store) GetLocationEvents(ctx context.Context, entityID string, fromID string, count int64) ([]*eventbus.LocationEvent, error) {
	key := eventbus.KeyLocationEvents + entityID

	if fromID == "" {
		fromID = "0"
	}

	msgs, err := s.client.XRange(ctx, key, fromID, "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get location events: %w", err)
	}

	var events []*eventbus.LocationEvent
	for _, msg := range msgs {
		events = append(events, decodeMessage(entityID, msg))
		if count > 0 && int64(len(events)) >= count {
			break
		}
	}
	return events, nil
}

// SubscribeLocations 订阅位置事件
//
// 返回的通道在 ctx 取消或订阅出错时关闭。
// 从 "$" 开始只读取订阅之后的新事件。
func (s *Store) SubscribeLocations(ctx context.Context, entityID string) (<-chan *eventbus.LocationEvent, error) {
	key := eventbus.KeyLocationEvents + entityID
	ch := make(chan *eventbus.LocationEvent, 100)

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := s.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{key, lastID},
				Count:   10,
				Block:   5 * time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				log.Printf("[Redis/EventBus] Location subscription error: %v", err)
				return
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					event := decodeMessage(entityID, msg)

					select {
					case ch <- event:
						lastID = msg.ID
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

// DeleteLocationEvents 删除实体的位置事件流
func (s *Store) DeleteLocationEvents(ctx context.Context, entityID string) error {
	key := eventbus.KeyLocationEvents + entityID
	return s.client.Del(ctx, key).Err()
}

// decodeMessage 将 Stream 消息解码为位置事件
func decodeMessage(entityID string, msg redis.XMessage) *eventbus.LocationEvent {
	event := &eventbus.LocationEvent{
		ID:       msg.ID,
		EntityID: entityID,
	}

	if kind, ok := msg.Values["entity_kind"].(string); ok {
		event.EntityKind = kind
	}
	if lat, ok := msg.Values["latitude"].(string); ok {
		event.Latitude, _ = strconv.ParseFloat(lat, 64)
	}
	if lon, ok := msg.Values["longitude"].(string); ok {
		event.Longitude, _ = strconv.ParseFloat(lon, 64)
	}
	if ts, ok := msg.Values["recorded_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			event.RecordedAt = t
		}
	}

	return event
}

// 确保 Store 实现了 EventBus 接口
var _ eventbus.EventBus = (*Store)(nil)
