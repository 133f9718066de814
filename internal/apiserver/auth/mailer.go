package auth

import (
	"context"
	"fmt"
	"log"

	"hirewheels/internal/shared/model"
)

// Mailer 邮件发送协作方
//
// 邮件投递属于外部协作者：发送失败只记录日志，
// 不影响注册/重置请求本身的响应。
type Mailer interface {
	SendVerificationEmail(ctx context.Context, user *model.User, token string) error
	SendPasswordResetEmail(ctx context.Context, user *model.User, token string) error
}

// LogMailer 仅记录日志的 Mailer 实现（开发/测试环境）
type LogMailer struct {
	// BaseURL 链接前缀，如 "https://hirewheels.example.com"
	BaseURL string
}

// NewLogMailer 创建 LogMailer 实例
func NewLogMailer(baseURL string) *LogMailer {
	return &LogMailer{BaseURL: baseURL}
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, user *model.User, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email/%s/%s", m.BaseURL, user.Username, token)
	log.Printf("[mailer] verification email for %s: %s", user.Email, link)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, user *model.User, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/reset-password/%s/%s", m.BaseURL, user.Username, token)
	log.Printf("[mailer] password reset email for %s: %s", user.Email, link)
	return nil
}

// 确保 LogMailer 实现了 Mailer 接口
var _ Mailer = (*LogMailer)(nil)
