package model

import "time"

// ============================================================================
// VehicleType - 车辆类型
// ============================================================================

// VehicleType 车辆类型
type VehicleType string

const (
	VehicleTypeCar   VehicleType = "car"
	VehicleTypeBike  VehicleType = "bike"
	VehicleTypeVan   VehicleType = "van"
	VehicleTypeTruck VehicleType = "truck"
)

// ValidVehicleType 校验车辆类型
func ValidVehicleType(t VehicleType) bool {
	switch t {
	case VehicleTypeCar, VehicleTypeBike, VehicleTypeVan, VehicleTypeTruck:
		return true
	}
	return false
}

// ============================================================================
// Vehicle - 车辆
// ============================================================================

// Vehicle 可出租车辆
//
// Active 为软删除标记：下架的车辆保留在集合中但不出现在列表里。
// Registration 在集合内唯一。
type Vehicle struct {
	ID           string      `json:"id" bson:"_id"`
	OwnerID      string      `json:"owner_id" bson:"owner_id"`
	Name         string      `json:"name" bson:"name"`
	Type         VehicleType `json:"type" bson:"type"`
	Registration string      `json:"registration" bson:"registration"`
	RatePerHour  float64     `json:"rate_per_hour" bson:"rate_per_hour"`
	Available    bool        `json:"available" bson:"available"`
	Active       bool        `json:"active" bson:"active"`
	Description  string      `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}
