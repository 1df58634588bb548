package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"memberflow/internal/pkg/config"
)

// redisStore keeps the session token in Redis. Used when the flow core
// is embedded server-side (kiosk or gateway deployments) where local
// files are not durable.
type redisStore struct {
	rdb *redis.Client
}

const redisSessionKey = "memberflow:" + sessionKey

// NewRedisStore connects to Redis and returns a TokenStore bound to it.
func NewRedisStore(lc fx.Lifecycle, cfg *config.Bootstrap, logger *zap.Logger) (TokenStore, error) {
	redisCfg := cfg.Session.Redis

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port),
		Username:     redisCfg.Username,
		Password:     redisCfg.Password,
		DB:           redisCfg.Db,
		DialTimeout:  time.Duration(redisCfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(redisCfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(redisCfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		if closeErr := rdb.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Redis session store connected", zap.String("host", redisCfg.Host))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing Redis connection...")
			return rdb.Close()
		},
	})

	return &redisStore{rdb: rdb}, nil
}

func (s *redisStore) Get(ctx context.Context) (string, error) {
	token, err := s.rdb.Get(ctx, redisSessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return token, nil
}

func (s *redisStore) Set(ctx context.Context, token string) error {
	return s.rdb.Set(ctx, redisSessionKey, token, 0).Err()
}

func (s *redisStore) Remove(ctx context.Context) error {
	return s.rdb.Del(ctx, redisSessionKey).Err()
}
