package model

import "time"

// ============================================================================
// PaymentMethod / PaymentStatus
// ============================================================================

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// ValidPaymentMethod 校验支付方式
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCash, PaymentMethodWallet:
		return true
	}
	return false
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// ============================================================================
// Payment - 支付记录
// ============================================================================

// Payment 支付记录
type Payment struct {
	ID        string        `json:"id" bson:"_id"`
	HireID    string        `json:"hire_id" bson:"hire_id"`
	UserID    string        `json:"user_id" bson:"user_id"`
	Amount    float64       `json:"amount" bson:"amount"`
	Method    PaymentMethod `json:"method" bson:"method"`
	Status    PaymentStatus `json:"status" bson:"status"`
	Reference string        `json:"reference,omitempty" bson:"reference,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}
