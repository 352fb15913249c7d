package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/logging"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type Config struct {
	Type          CacheType
	RedisAddr     string
	RedisDB       int
	RedisPassword string
	PingTimeout   time.Duration
}

// New crea el backend indicado. Para redis verifica la conexión antes de retornar.
func New(ctx context.Context, config Config) (interfaces.Cache, error) {
	switch config.Type {
	case CacheTypeMemory, "":
		logging.Info(ctx, "Creating memory cache", logging.Fields{"type": "memory"})
		return NewMemoryCache(), nil

	case CacheTypeRedis:
		logging.Info(ctx, "Creating Redis cache", logging.Fields{
			"type":     "redis",
			"addr":     config.RedisAddr,
			"database": config.RedisDB,
		})
		return newRedisChecked(ctx, config)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}

func newRedisChecked(ctx context.Context, config Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	timeout := config.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", config.RedisAddr, err)
	}

	logging.Info(ctx, "Redis connection established", logging.Fields{
		"addr":     config.RedisAddr,
		"database": config.RedisDB,
	})
	return NewRedisCacheWithClient(client), nil
}
