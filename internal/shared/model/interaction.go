package model

import "time"

// ============================================================================
// Interaction - 用户与车辆的互动
// ============================================================================

// InteractionKind 互动类型
type InteractionKind string

const (
	// InteractionKindMessage 留言（咨询车主）
	InteractionKindMessage InteractionKind = "message"

	// InteractionKindReview 评价（带评分）
	InteractionKindReview InteractionKind = "review"
)

// Interaction 用户对车辆的留言或评价
type Interaction struct {
	ID        string          `json:"id" bson:"_id"`
	UserID    string          `json:"user_id" bson:"user_id"`
	VehicleID string          `json:"vehicle_id" bson:"vehicle_id"`
	Kind      InteractionKind `json:"kind" bson:"kind"`
	Body      string          `json:"body" bson:"body"`

	// Rating 仅 review 使用，1-5
	Rating int `json:"rating,omitempty" bson:"rating,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
