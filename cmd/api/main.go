package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"lessonhub/internal/app"
	"lessonhub/internal/config"
	"lessonhub/internal/database"
	"lessonhub/internal/docstore"
	jwtsvc "lessonhub/internal/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := app.NewLogger(cfg.AppEnv)
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	cache, closeCache := chatCache(cfg, logger)
	defer closeCache()

	container := app.NewContainer(docstore.NewGorm(db), cache, cfg.RescheduleOffset, logger)
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	router := app.NewRouter(container, j, app.RouterConfig{
		InternalToken:      cfg.InternalToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := app.NewScheduler(container.Chat, cfg.ChatSyncInterval, logger.Named("scheduler"))
	scheduler.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	scheduler.Stop()
}

// chatCache returns the document store backing the client-local chat copy.
func chatCache(cfg *config.Config, logger *zap.Logger) (docstore.Store, func()) {
	if cfg.ChatCacheDriver != config.CacheDriverRedis {
		return docstore.NewMemory(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis chat cache unreachable, writes will be retried", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		logger.Info("Using redis chat cache", zap.String("addr", cfg.RedisAddr))
	}
	return docstore.NewRedis(client, "lessonhub:chat:"), func() { _ = client.Close() }
}
