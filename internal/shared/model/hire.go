package model

import "time"

// ============================================================================
// HireStatus - 租用状态
// ============================================================================

// HireStatus 租用状态
type HireStatus string

const (
	// HireStatusBooked 已预订（初始状态）
	HireStatusBooked HireStatus = "booked"

	// HireStatusActive 租用中
	HireStatusActive HireStatus = "active"

	// HireStatusCompleted 已完成
	HireStatusCompleted HireStatus = "completed"

	// HireStatusCancelled 已取消
	HireStatusCancelled HireStatus = "cancelled"
)

// hireTransitions 允许的状态迁移
var hireTransitions = map[HireStatus][]HireStatus{
	HireStatusBooked: {HireStatusActive, HireStatusCancelled},
	HireStatusActive: {HireStatusCompleted, HireStatusCancelled},
}

// CanTransition 状态迁移是否合法
func (s HireStatus) CanTransition(to HireStatus) bool {
	for _, next := range hireTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal 是否为终态
func (s HireStatus) Terminal() bool {
	return s == HireStatusCompleted || s == HireStatusCancelled
}

// ============================================================================
// Hire - 租用记录
// ============================================================================

// Hire 租用记录
type Hire struct {
	ID          string     `json:"id" bson:"_id"`
	UserID      string     `json:"user_id" bson:"user_id"`
	VehicleID   string     `json:"vehicle_id" bson:"vehicle_id"`
	StartTime   time.Time  `json:"start_time" bson:"start_time"`
	EndTime     time.Time  `json:"end_time" bson:"end_time"`
	Status      HireStatus `json:"status" bson:"status"`
	TotalAmount float64    `json:"total_amount" bson:"total_amount"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}
