package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain/repository"
	apperrors "github.com/spatial-summarize/internal/pkg/errors"
)

const (
	summaryKeyPrefix = "summary:"
	layerKeyPrefix   = "layer:"
	// layerSummariesSuffix - множество ключей сводок, посчитанных по слою
	layerSummariesSuffix = ":summaries"
)

// SummaryKey возвращает ключ сводки по хешу запроса
func SummaryKey(hash string) string {
	return summaryKeyPrefix + hash
}

// LayerKey возвращает ключ закешированного слоя
func LayerKey(layerID string) string {
	return layerKeyPrefix + layerID
}

func layerSummariesKey(layerID string) string {
	return LayerKey(layerID) + layerSummariesSuffix
}

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return NewCacheRepositoryWithClient(redis.Client(), redis.logger)
}

// NewCacheRepositoryWithClient создает репозиторий поверх готового клиента
func NewCacheRepositoryWithClient(client *redis.Client, logger *zap.Logger) repository.CacheRepository {
	return &cacheRepository{
		client: client,
		logger: logger,
	}
}

func (r *cacheRepository) get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Cache miss", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, apperrors.ErrCacheError.WithMessage("cache get error").Wrap(err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return apperrors.ErrCacheError.WithMessage("cache set error").Wrap(err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) GetSummary(ctx context.Context, hash string) ([]byte, error) {
	return r.get(ctx, SummaryKey(hash))
}

// SetSummary пишет сводку и индексы слоев в одной транзакции MULTI/EXEC
func (r *cacheRepository) SetSummary(ctx context.Context, hash string, data []byte, ttl time.Duration, layerIDs ...string) error {
	key := SummaryKey(hash)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, ttl)
		for _, id := range layerIDs {
			pipe.SAdd(ctx, layerSummariesKey(id), key)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to cache summary", zap.String("key", key), zap.Error(err))
		return apperrors.ErrCacheError.WithMessage("cache summary error").Wrap(err)
	}

	r.logger.Debug("Summary cached",
		zap.String("key", key),
		zap.Strings("layers", layerIDs),
		zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) GetLayer(ctx context.Context, layerID string) ([]byte, error) {
	return r.get(ctx, LayerKey(layerID))
}

func (r *cacheRepository) SetLayer(ctx context.Context, layerID string, data []byte, ttl time.Duration) error {
	return r.set(ctx, LayerKey(layerID), data, ttl)
}

func (r *cacheRepository) InvalidateLayer(ctx context.Context, layerID string) error {
	indexKey := layerSummariesKey(layerID)

	summaries, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		r.logger.Error("Failed to read layer summaries", zap.String("layer_id", layerID), zap.Error(err))
		return apperrors.ErrCacheError.WithMessage("cache invalidate error").Wrap(err)
	}

	keys := append([]string{LayerKey(layerID), indexKey}, summaries...)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Failed to invalidate layer", zap.String("layer_id", layerID), zap.Error(err))
		return apperrors.ErrCacheError.WithMessage("cache invalidate error").Wrap(err)
	}

	r.logger.Info("Layer cache invalidated",
		zap.String("layer_id", layerID),
		zap.Int("summaries", len(summaries)))
	return nil
}
