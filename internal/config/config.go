// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、JWT 密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载 configs/common.yaml 和 configs/{env}.yaml
//  3. 环境变量覆盖 YAML 配置中的敏感部分
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test" // 测试环境（集成测试 + E2E 共用）
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	Redis  RedisConfig  `yaml:"redis"`
	Auth   AuthConfig   `yaml:"auth"`
	Mail   MailConfig   `yaml:"mail"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MongoConfig struct {
	// URI 非空时直接使用，否则从 host/port/user 构建
	URI      string `yaml:"uri"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
}

// AuthConfig 令牌有效期（密钥只从环境变量读取）
type AuthConfig struct {
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	VerifyTokenTTL  time.Duration `yaml:"verify_token_ttl"`
	ResetTokenTTL   time.Duration `yaml:"reset_token_ttl"`
	CookieSecure    bool          `yaml:"cookie_secure"`
}

// MailConfig 邮件链接配置
type MailConfig struct {
	// BaseURL 验证/重置链接的前端基地址
	BaseURL string `yaml:"base_url"`
}

// Secrets JWT 签名密钥（只从环境变量读取，每种令牌独立密钥）
type Secrets struct {
	AccessToken  string
	RefreshToken string
	EmailVerify  string
	ResetToken   string
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	MongoURI string
	MongoDB  string
	RedisURL string
	APIPort  string
	Auth     AuthConfig
	Mail     MailConfig
	Secrets  Secrets

	// 管理员引导账号（首次启动时创建）
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	mongoPassword := os.Getenv("MONGO_PASSWORD")

	cfg := &Config{
		Env:      env,
		MongoURI: buildMongoURI(yamlCfg.Mongo, mongoPassword),
		MongoDB:  yamlCfg.Mongo.Database,
		RedisURL: buildRedisURL(yamlCfg.Redis),
		APIPort:  yamlCfg.Server.Port,
		Auth:     yamlCfg.Auth,
		Mail:     yamlCfg.Mail,
		Secrets: Secrets{
			AccessToken:  os.Getenv("ACCESS_TOKEN_SECRET"),
			RefreshToken: os.Getenv("REFRESH_TOKEN_SECRET"),
			EmailVerify:  os.Getenv("EMAIL_VERIFY_TOKEN_SECRET"),
			ResetToken:   os.Getenv("PASSWORD_RESET_TOKEN_SECRET"),
		},
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@localhost"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080"},
		Mongo:  MongoConfig{Host: "localhost", Port: 27017, Database: "hirewheels"},
		Redis:  RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		Auth: AuthConfig{
			AccessTokenTTL:  5 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			VerifyTokenTTL:  24 * time.Hour,
			ResetTokenTTL:   15 * time.Minute,
		},
		Mail: MailConfig{BaseURL: "http://localhost:8080"},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildMongoURI 构建 MongoDB 连接字符串
// URI 字段非空时直接使用；否则从 host/port/user/password 构建
func buildMongoURI(mongo MongoConfig, password string) string {
	if mongo.URI != "" {
		return mongo.URI
	}
	if mongo.User != "" && password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", mongo.User, password, mongo.Host, mongo.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", mongo.Host, mongo.Port)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(redis RedisConfig) string {
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", password, redis.Host, redis.Port, redis.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate 校验关键配置
//
// 生产环境缺少任一 JWT 密钥直接拒绝启动；
// 四种密钥必须互不相同，避免令牌跨用途混用。
func (c *Config) Validate() error {
	secrets := map[string]string{
		"ACCESS_TOKEN_SECRET":         c.Secrets.AccessToken,
		"REFRESH_TOKEN_SECRET":        c.Secrets.RefreshToken,
		"EMAIL_VERIFY_TOKEN_SECRET":   c.Secrets.EmailVerify,
		"PASSWORD_RESET_TOKEN_SECRET": c.Secrets.ResetToken,
	}
	for name, value := range secrets {
		if value == "" {
			if c.Env == EnvProduction {
				return fmt.Errorf("%s must be set in production", name)
			}
		}
	}
	if c.Secrets.AccessToken != "" && c.Secrets.AccessToken == c.Secrets.RefreshToken {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	return nil
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s/%s, Redis: %s}",
		c.Env, maskPassword(c.MongoURI), c.MongoDB, maskPassword(c.RedisURL))
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
