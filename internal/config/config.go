package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultDatabaseURL   = "lessonhub.db"
	defaultHTTPAddr      = ":8080"
	defaultJWTTTL        = "24h"
	defaultSyncInterval  = "30s"
	defaultRescheduleGap = "24h"
)

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret     string
	JWTTTL        time.Duration
	InternalToken string

	ChatCacheDriver  string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ChatSyncInterval time.Duration

	RescheduleOffset time.Duration

	CORSAllowedOrigins []string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", defaultHTTPAddr)
	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", defaultJWTTTL)
	v.SetDefault("INTERNAL_TOKEN", "")
	v.SetDefault("CHAT_CACHE_DRIVER", CacheDriverMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CHAT_SYNC_INTERVAL", defaultSyncInterval)
	v.SetDefault("RESCHEDULE_OFFSET", defaultRescheduleGap)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:          strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTPAddr:        strings.TrimSpace(v.GetString("HTTP_ADDR")),
		DatabaseURL:     strings.TrimSpace(v.GetString("DATABASE_URL")),
		JWTSecret:       strings.TrimSpace(v.GetString("JWT_SECRET")),
		InternalToken:   strings.TrimSpace(v.GetString("INTERNAL_TOKEN")),
		ChatCacheDriver: strings.ToLower(strings.TrimSpace(v.GetString("CHAT_CACHE_DRIVER"))),
		RedisAddr:       strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(v, "JWT_TTL"); err != nil {
		return nil, err
	}
	if cfg.ChatSyncInterval, err = parseDuration(v, "CHAT_SYNC_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.RescheduleOffset, err = parseDuration(v, "RESCHEDULE_OFFSET"); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.ChatSyncInterval < 0 {
		return fmt.Errorf("CHAT_SYNC_INTERVAL must be >= 0")
	}
	if cfg.RescheduleOffset <= 0 {
		return fmt.Errorf("RESCHEDULE_OFFSET must be > 0")
	}
	if cfg.ChatCacheDriver != CacheDriverMemory && cfg.ChatCacheDriver != CacheDriverRedis {
		return fmt.Errorf("CHAT_CACHE_DRIVER must be one of: memory, redis")
	}
	if cfg.ChatCacheDriver == CacheDriverRedis && cfg.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CHAT_CACHE_DRIVER=redis")
	}

	if cfg.IsProduction() {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.InternalToken == "" {
			return fmt.Errorf("in prod/release INTERNAL_TOKEN must be set")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}
