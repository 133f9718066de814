// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/
//   - 初始化时通过依赖注入传入实现
//
// 各领域 handler 包另行声明自己所需的窄接口
// （如 auth.UserStore），本接口是它们的并集，由
// mongostore.Store 统一实现。
package storage

import (
	"context"
	"time"

	"hirewheels/internal/shared/model"
)

// ============================================================================
// 查询过滤器
// ============================================================================

// VehicleFilter 车辆列表过滤条件
type VehicleFilter struct {
	Type          model.VehicleType // 为空则不过滤
	OnlyAvailable bool
	OwnerID       string
}

// HireFilter 租用列表过滤条件
type HireFilter struct {
	UserID    string
	VehicleID string
	Status    model.HireStatus
}

// PaymentFilter 支付列表过滤条件
type PaymentFilter struct {
	UserID string
	HireID string
}

// ============================================================================
// 分领域接口
// ============================================================================

// UserStore 用户凭证存储
//
// 查询方法在文档不存在时返回 (nil, nil)。
// ReplaceRefreshToken 在同一次更新中移除旧令牌并写入新令牌；
// 旧令牌不在集合中时返回 ErrNotFound（刷新竞争的败者走此路径）。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)

	AppendRefreshToken(ctx context.Context, id, token string) error
	RemoveRefreshToken(ctx context.Context, id, token string) error
	ReplaceRefreshToken(ctx context.Context, id, oldToken, newToken string) error
	ClearRefreshTokens(ctx context.Context, id string) error

	SetUserVerified(ctx context.Context, id string, at time.Time) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	TouchUserActivity(ctx context.Context, id string) error
	SetUserActive(ctx context.Context, id string, active bool) error
}

// VehicleStore 车辆存储
type VehicleStore interface {
	CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]*model.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	SetVehicleAvailable(ctx context.Context, id string, available bool) error
	DeactivateVehicle(ctx context.Context, id string) error
}

// HireStore 租用存储
type HireStore interface {
	CreateHire(ctx context.Context, hire *model.Hire) error
	GetHire(ctx context.Context, id string) (*model.Hire, error)
	ListHires(ctx context.Context, filter HireFilter) ([]*model.Hire, error)
	UpdateHireStatus(ctx context.Context, id string, status model.HireStatus) error
}

// PaymentStore 支付存储
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]*model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error
}

// LocationStore 位置存储（每实体仅保留最新定位）
type LocationStore interface {
	UpsertLocation(ctx context.Context, loc *model.Location) error
	GetLocation(ctx context.Context, entityID string) (*model.Location, error)
}

// InteractionStore 互动存储
type InteractionStore interface {
	CreateInteraction(ctx context.Context, in *model.Interaction) error
	ListVehicleInteractions(ctx context.Context, vehicleID string) ([]*model.Interaction, error)
}

// ============================================================================
// 组合接口
// ============================================================================

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	VehicleStore
	HireStore
	PaymentStore
	LocationStore
	InteractionStore

	Close() error
}
