package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
	"victorina_backend/internal/config"
	applog "victorina_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisPingAttempts = 3

// InitRedis pings up to redisPingAttempts times before giving up.
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	var err error
	for attempt := 1; attempt <= redisPingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			applog.Log.Info("Redis connection established", zap.String("addr", addr), zap.Int("db", cfg.DB))
			return rdb, nil
		}
		applog.Log.Warn("Redis ping failed", zap.String("addr", addr), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < redisPingAttempts {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}

	rdb.Close()
	return nil, fmt.Errorf("redis %s: %w", addr, err)
}
