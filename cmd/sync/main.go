// Command sync runs one reconciliation between the redis chat cache and the
// server thread store, then exits.
package main

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"lessonhub/internal/app"
	"lessonhub/internal/config"
	"lessonhub/internal/database"
	"lessonhub/internal/docstore"
	"lessonhub/internal/domain/chat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := app.NewLogger(cfg.AppEnv)
	defer func() { _ = logger.Sync() }()

	if cfg.ChatCacheDriver != config.CacheDriverRedis {
		logger.Fatal("Chat sync needs a shared cache, set CHAT_CACHE_DRIVER=redis")
	}

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	server := docstore.NewGorm(db)
	replica := chat.NewReplica(
		chat.NewStore(docstore.NewRedis(client, "lessonhub:chat:"), nil),
		chat.NewStore(server, chat.NewDocumentLegacySource(server)),
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := replica.Sync(ctx)
	if err != nil {
		logger.Fatal("Chat sync failed", zap.Error(err))
	}
	logger.Info("Chat sync completed", zap.Int("threads", n))
}
