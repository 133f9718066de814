package model

import "time"

// ============================================================================
// Location - 实时位置
// ============================================================================

// Location 用户或车辆的最新位置定位
//
// 每个实体只保留最新一条（upsert），历史轨迹通过
// 位置事件总线（Redis Streams）对外推送。
type Location struct {
	EntityID   string    `json:"entity_id" bson:"_id"`
	EntityKind string    `json:"entity_kind" bson:"entity_kind"` // "user" | "vehicle"
	Latitude   float64   `json:"latitude" bson:"latitude"`
	Longitude  float64   `json:"longitude" bson:"longitude"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// ValidCoordinates 坐标是否在有效范围内
func (l *Location) ValidCoordinates() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}
