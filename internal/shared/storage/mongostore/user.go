package mongostore

import (
	"context"
	"time"

	"hirewheels/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "username", Value: username}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, opts)
}

// ============================================================================
// 刷新令牌集合操作
// ============================================================================

// AppendRefreshToken 追加刷新令牌（登录新会话）
func (s *Store) AppendRefreshToken(ctx context.Context, id, token string) error {
	return updateOne(ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "refresh_tokens", Value: token}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
}

// RemoveRefreshToken 移除刷新令牌（登出单个会话）
func (s *Store) RemoveRefreshToken(ctx context.Context, id, token string) error {
	return updateOne(ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "refresh_tokens", Value: token}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
}

// ReplaceRefreshToken 轮换刷新令牌
//
// 过滤条件同时匹配 _id 和旧令牌，配合位置操作符 $ 在单次
// 文档更新中原地替换——旧令牌移除与新令牌写入不可分割。
// 旧令牌已不在集合中（已被并发刷新轮换走，或被盗用后失效）
// 时未命中任何文档，返回 ErrNotFound，调用方据此走复用检测路径。
func (s *Store) ReplaceRefreshToken(ctx context.Context, id, oldToken, newToken string) error {
	now := time.Now()
	return updateOne(ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: id}, {Key: "refresh_tokens", Value: oldToken}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "refresh_tokens.$", Value: newToken},
			{Key: "last_active_at", Value: now},
			{Key: "updated_at", Value: now},
		}}})
}

// ClearRefreshTokens 清空刷新令牌集合（检测到令牌复用或密码重置时撤销全部会话）
func (s *Store) ClearRefreshTokens(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "refresh_tokens", Value: []string{}},
		{Key: "updated_at", Value: time.Now()},
	})
}

// ============================================================================
// 账号状态
// ============================================================================

func (s *Store) SetUserVerified(ctx context.Context, id string, at time.Time) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "verified_at", Value: at},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) TouchUserActivity(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "last_active_at", Value: time.Now()},
	})
}

func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "active", Value: active},
		{Key: "updated_at", Value: time.Now()},
	})
}
