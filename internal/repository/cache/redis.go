package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/config"
)

const (
	pingTimeout = 5 * time.Second
	clientName  = "spatial-summarize"
	// слой на десятки тысяч объектов пишется одной командой
	writeTimeout = 10 * time.Second
)

// Redis - общее подключение для кеша результатов, кеша слоев и стримов задач
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

func clientOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  pingTimeout,
		WriteTimeout: writeTimeout,
	}
}

// NewRedis подключается к Redis и проверяет соединение
func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(clientOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.DB),
	)

	return &Redis{
		client: client,
		logger: logger,
	}, nil
}

func (r *Redis) Close() error {
	stats := r.client.PoolStats()
	r.logger.Info("Closing Redis connection",
		zap.Uint32("hits", stats.Hits),
		zap.Uint32("misses", stats.Misses),
		zap.Uint32("timeouts", stats.Timeouts))
	return r.client.Close()
}

func (r *Redis) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Client возвращает клиент для репозиториев стримов
func (r *Redis) Client() *redis.Client {
	return r.client
}
