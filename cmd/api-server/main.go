// Package main API Server 入口
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/apiserver/server"
	"course-market/internal/config"
	"course-market/internal/shared/cache"
	rediscache "course-market/internal/shared/cache/redis"
	"course-market/internal/shared/mailer"
	"course-market/internal/shared/payment"
	"course-market/internal/shared/storage/mongostore"
	"course-market/pkg/logging"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 yaml）
	cfg := config.Load()

	logger := logging.Default("api-server")
	logger.Info("starting API server", "env", cfg.Env)
	logger.Info("configuration loaded", "config", cfg.String())

	// 必需的敏感配置缺失直接拒绝启动
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("failed to connect to MongoDB")
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("connected to MongoDB", "database", cfg.MongoDB)

	// 初始化排行榜缓存（Redis 未配置时退化为 NoOp）
	var leaderboard cache.Cache = cache.NewNoOpCache()
	if cfg.RedisURL != "" {
		redisCache, err := rediscache.NewStoreFromURL(cfg.RedisURL, cfg.LeaderboardTTL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, leaderboard cache disabled")
		} else {
			leaderboard = redisCache
			logger.Info("connected to Redis")
		}
	}
	defer leaderboard.Close()

	// 支付服务商与邮件发送器
	provider := payment.NewStripeProvider(cfg.StripeSecretKey)
	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	authCfg := auth.Config{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}

	h := server.NewHandler(store, leaderboard, provider, sender, authCfg, cfg.CORSOrigins)

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

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("server shutdown error")
		}
	}()

	logger.Info("API server listening", "port", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logger.WithError(err).Error("server error")
		os.Exit(1)
	}

	logger.Info("server stopped")
}
