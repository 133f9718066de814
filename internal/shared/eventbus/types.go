// Package eventbus 事件总线类型定义
package eventbus

import (
	"time"
)

// LocationEvent 位置事件
type LocationEvent struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	EntityKind string    `json:"entity_kind"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

const (
	// KeyLocationEvents Stream Key 前缀
	KeyLocationEvents = "location_events:"

	// MaxStreamLength Stream 最大长度（近似裁剪）
	MaxStreamLength = 1000
)
