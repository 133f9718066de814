// Package infra Redis 基础设施初始化
package infra

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"hirewheels/internal/shared/eventbus"
	eventbusredis "hirewheels/internal/shared/eventbus/redis"
)

// RedisInfra Redis 基础设施（实现 eventbus.EventBus 接口）
type RedisInfra struct {
	eventBusStore *eventbusredis.Store

	// 底层连接
	client *redis.Client
}

// NewRedisInfra 从 URL 创建 Redis 基础设施
func NewRedisInfra(redisURL string) (*RedisInfra, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Infra] Connected to %s", opts.Addr)

	return &RedisInfra{
		client:        client,
		eventBusStore: eventbusredis.NewStoreFromClient(client),
	}, nil
}

// Close 关闭 Redis 连接
func (r *RedisInfra) Close() error {
	return r.client.Close()
}

// EventBus 方法委托

func (r *RedisInfra) PublishLocation(ctx context.Context, entityID string, event *eventbus.LocationEvent) error {
	return r.eventBusStore.PublishLocation(ctx, entityID, event)
}

func (r *RedisInfra) GetLocationEvents(ctx context.Context, entityID string, fromID string, count int64) ([]*eventbus.LocationEvent, error) {
	return r.eventBusStore.GetLocationEvents(ctx, entityID, fromID, count)
}

func (r *RedisInfra) SubscribeLocations(ctx context.Context, entityID string) (<-chan *eventbus.LocationEvent, error) {
	return r.eventBusStore.SubscribeLocations(ctx, entityID)
}

func (r *RedisInfra) DeleteLocationEvents(ctx context.Context, entityID string) error {
	return r.eventBusStore.DeleteLocationEvents(ctx, entityID)
}

// 确保 RedisInfra 实现了 EventBus 接口
var _ eventbus.EventBus = (*RedisInfra)(nil)
