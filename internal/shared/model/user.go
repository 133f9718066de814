// Package model 定义核心数据模型
//
// user.go 包含用户凭证相关的数据模型定义：
//   - User：用户凭证记录（认证核心的唯一持久化实体）
//   - Role：用户角色枚举
package model

import "time"

// ============================================================================
// Role - 用户角色
// ============================================================================

// Role 用户角色
type Role string

const (
	// RoleStandard 普通用户
	RoleStandard Role = "standard"

	// RoleBusiness 商家用户（可发布车辆）
	RoleBusiness Role = "business"

	// RoleAdmin 管理员
	RoleAdmin Role = "admin"
)

// ============================================================================
// User - 用户凭证记录
// ============================================================================

// User 用户凭证记录
//
// 认证核心的唯一共享可变资源，仅由用户自身的请求
// （登录/刷新/登出）修改。refresh_tokens 保存当前有效的
// 刷新令牌集合，支持多设备并发会话；轮换时旧令牌移除、
// 新令牌追加在同一次保存中完成。
type User struct {
	ID           string     `json:"id" bson:"_id"`
	Username     string     `json:"username" bson:"username"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"` // never expose in JSON
	Roles        []Role     `json:"roles" bson:"roles"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	Active       bool       `json:"active" bson:"active"`

	// RefreshTokens 当前有效的刷新令牌集合（按签发顺序）
	RefreshTokens []string `json:"-" bson:"refresh_tokens"`

	LastActiveAt *time.Time `json:"last_active_at,omitempty" bson:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// Verified 是否已完成邮箱验证
func (u *User) Verified() bool {
	return u.VerifiedAt != nil
}

// HasRole 是否持有指定角色
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasRefreshToken 刷新令牌是否在有效集合中
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}
