// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件
//
// 令牌体系：
//   - access：短期令牌，携带用户 ID/用户名/角色，用于逐请求鉴权
//   - refresh：长期令牌，仅携带用户 ID，保存在 HttpOnly Cookie 中，
//     每次刷新都轮换（旧令牌失效、新令牌写入同一次保存）
//   - verify / reset：邮箱验证与密码重置的一次性链接令牌
//
// 四类令牌各用独立密钥签名，轮换任一密钥只作废对应类别的存量令牌。
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"hirewheels/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// CookieName 刷新令牌 Cookie 名
const CookieName = "jwt"

// 令牌类别
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenTypeVerify  = "verify"
	tokenTypeReset   = "reset"
)

// AuthUser 从 JWT 解析出的用户信息
type AuthUser struct {
	ID       string
	Username string
	Roles    []model.Role
}

// HasRole 是否持有指定角色
func (u *AuthUser) HasRole(role model.Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Config 认证配置
//
// 密钥只从环境变量注入（见 config 包），绝不写入 YAML。
type Config struct {
	AccessTokenSecret  string        `yaml:"-"`
	RefreshTokenSecret string        `yaml:"-"`
	VerifyTokenSecret  string        `yaml:"-"`
	ResetTokenSecret   string        `yaml:"-"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl"`
	VerifyTokenTTL     time.Duration `yaml:"verify_token_ttl"`
	ResetTokenTTL      time.Duration `yaml:"reset_token_ttl"`

	// CookieSecure 刷新 Cookie 是否仅限 TLS 传输（生产必须为 true）
	CookieSecure bool `yaml:"cookie_secure"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:  5 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		VerifyTokenTTL:  24 * time.Hour,
		ResetTokenTTL:   15 * time.Minute,
	}
}

// Validate 校验签名密钥配置（启动时调用，失败为致命错误）
func (c Config) Validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("auth: ACCESS_TOKEN_SECRET is not set")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("auth: REFRESH_TOKEN_SECRET is not set")
	}
	if c.VerifyTokenSecret == "" {
		return errors.New("auth: EMAIL_VERIFY_TOKEN_SECRET is not set")
	}
	if c.ResetTokenSecret == "" {
		return errors.New("auth: PASSWORD_RESET_TOKEN_SECRET is not set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("auth: access and refresh secrets must differ")
	}
	return nil
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
type Claims struct {
	jwt.RegisteredClaims
	Username string       `json:"username,omitempty"`
	Roles    []model.Role `json:"roles,omitempty"`
	Type     string       `json:"type,omitempty"` // "access" | "refresh" | "verify" | "reset"
}

// GenerateAccessToken 生成访问令牌
func GenerateAccessToken(cfg Config, user *model.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AccessTokenTTL)),
		},
		Username: user.Username,
		Roles:    user.Roles,
		Type:     tokenTypeAccess,
	}
	return signToken(cfg.AccessTokenSecret, claims)
}

// GenerateRefreshToken 生成刷新令牌（仅携带用户 ID）
func GenerateRefreshToken(cfg Config, userID string) (string, error) {
	return signToken(cfg.RefreshTokenSecret, subjectClaims(userID, tokenTypeRefresh, cfg.RefreshTokenTTL))
}

// GenerateVerifyToken 生成邮箱验证令牌
func GenerateVerifyToken(cfg Config, userID string) (string, error) {
	return signToken(cfg.VerifyTokenSecret, subjectClaims(userID, tokenTypeVerify, cfg.VerifyTokenTTL))
}

// GenerateResetToken 生成密码重置令牌
func GenerateResetToken(cfg Config, userID string) (string, error) {
	return signToken(cfg.ResetTokenSecret, subjectClaims(userID, tokenTypeReset, cfg.ResetTokenTTL))
}

// ParseAccessToken 解析并验证访问令牌
func ParseAccessToken(cfg Config, tokenString string) (*Claims, error) {
	return parseToken(cfg.AccessTokenSecret, tokenString, tokenTypeAccess)
}

// ParseRefreshToken 解析并验证刷新令牌
func ParseRefreshToken(cfg Config, tokenString string) (*Claims, error) {
	return parseToken(cfg.RefreshTokenSecret, tokenString, tokenTypeRefresh)
}

// ParseVerifyToken 解析并验证邮箱验证令牌
func ParseVerifyToken(cfg Config, tokenString string) (*Claims, error) {
	return parseToken(cfg.VerifyTokenSecret, tokenString, tokenTypeVerify)
}

// ParseResetToken 解析并验证密码重置令牌
func ParseResetToken(cfg Config, tokenString string) (*Claims, error) {
	return parseToken(cfg.ResetTokenSecret, tokenString, tokenTypeReset)
}

func subjectClaims(userID, tokenType string, ttl time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Type: tokenType,
	}
}

func signToken(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret, tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("invalid token type: %q", claims.Type)
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithAuthUser 将认证用户信息注入 context
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetAuthUser 从 context 获取认证用户
func GetAuthUser(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return user
}
