package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"livecast-api/internal/chat"
	"livecast-api/internal/config"
	"livecast-api/internal/handlers"
	httpx "livecast-api/internal/http"
	"livecast-api/internal/repo"
	"livecast-api/internal/service"
)

func main() {
	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		PoolSize:     10,              // 接続プールサイズ
		MinIdleConns: 5,               // 最小アイドル接続数
		MaxRetries:   3,               // リトライ回数
		DialTimeout:  5 * time.Second, // 接続タイムアウト
		ReadTimeout:  3 * time.Second, // 読み込みタイムアウト
		WriteTimeout: 3 * time.Second, // 書き込みタイムアウト
		PoolTimeout:  4 * time.Second, // プールからの取得タイムアウト
	})

	// Redis接続確認
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")

	db, err := repo.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to open sqlite")
	}
	defer db.Close()

	store := repo.NewSQLiteRepo(db)
	sessions := repo.NewRedisSessionRepo(rdb)

	hub := chat.NewHub(logger.With().Str("component", "hub").Logger())
	limiter := chat.NewRateLimiter(time.Duration(cfg.ChatCooldownMs) * time.Millisecond)

	authSvc := service.NewAuthService(store, sessions, cfg.SessionTTL)
	streamSvc := service.NewStreamService(store, store, hub)

	authHandler := handlers.NewAuthHandler(authSvc, logger.With().Str("component", "auth").Logger())
	streamHandler := handlers.NewStreamHandler(streamSvc, logger.With().Str("component", "stream").Logger())
	wsHandler := handlers.NewWebSocketHandler(authSvc, streamSvc, hub, limiter, logger.With().Str("component", "ws").Logger())
	mw := handlers.NewAuthMiddleware(authSvc, logger.With().Str("component", "middleware").Logger())

	router := httpx.NewRouter(authHandler, streamHandler, wsHandler, mw, cfg.AllowedOrigin)

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown用のシグナルチャネル
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// サーバーを別goroutineで起動
	go func() {
		logger.Info().Str("addr", cfg.APIAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// シャットダウンシグナルを待つ
	<-sigChan
	logger.Info().Msg("shutdown signal received, shutting down gracefully...")

	// 30秒のタイムアウトでGraceful Shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	logger.Info().Msg("server stopped")
}
