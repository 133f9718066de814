// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hirewheels/internal/apiserver/auth"
	"hirewheels/internal/apiserver/server"
	"hirewheels/internal/config"
	"hirewheels/internal/shared/infra"
	"hirewheels/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化 Redis（位置事件总线）
	redisInfra, err := infra.NewRedisInfra(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisInfra.Close()
	log.Println("Connected to Redis")

	authCfg := auth.Config{
		AccessTokenSecret:  cfg.Secrets.AccessToken,
		RefreshTokenSecret: cfg.Secrets.RefreshToken,
		VerifyTokenSecret:  cfg.Secrets.EmailVerify,
		ResetTokenSecret:   cfg.Secrets.ResetToken,
		AccessTokenTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL:    cfg.Auth.RefreshTokenTTL,
		VerifyTokenTTL:     cfg.Auth.VerifyTokenTTL,
		ResetTokenTTL:      cfg.Auth.ResetTokenTTL,
		CookieSecure:       cfg.Auth.CookieSecure,
	}
	if err := authCfg.Validate(); err != nil {
		log.Fatalf("Invalid auth config: %v", err)
	}

	// 管理员引导账号
	if err := auth.EnsureAdminUser(store, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	mailer := auth.NewLogMailer(cfg.Mail.BaseURL)
	h := server.NewHandler(store, redisInfra, authCfg, mailer)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
