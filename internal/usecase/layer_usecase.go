package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/domain/repository"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/pkg/layerio"
	"github.com/spatial-summarize/internal/pkg/validator"
	"github.com/spatial-summarize/internal/usecase/dto"
)

// LayerUseCase управляет сохраненными слоями
type LayerUseCase struct {
	layerRepo   repository.LayerRepository
	cacheRepo   repository.CacheRepository
	cacheTTL    time.Duration
	maxFeatures int
	logger      *zap.Logger
}

// NewLayerUseCase создает новый экземпляр LayerUseCase
func NewLayerUseCase(
	layerRepo repository.LayerRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	maxFeatures int,
	logger *zap.Logger,
) *LayerUseCase {
	return &LayerUseCase{
		layerRepo:   layerRepo,
		cacheRepo:   cacheRepo,
		cacheTTL:    cacheTTL,
		maxFeatures: maxFeatures,
		logger:      logger,
	}
}

// Create разбирает GeoJSON и сохраняет слой
func (uc *LayerUseCase) Create(ctx context.Context, req dto.CreateLayerRequest) (*domain.LayerInfo, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	layer, err := layerio.Decode(req.GeoJSON, req.CRS)
	if err != nil {
		return nil, err
	}
	if err := checkFeatureLimit(uc.maxFeatures, layer.Len()); err != nil {
		return nil, err
	}

	info, err := uc.layerRepo.Create(ctx, req.Name, layer)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Layer created",
		zap.String("layer_id", info.ID.String()),
		zap.String("name", info.Name),
		zap.Int("features", info.FeatureCount))
	return info, nil
}

// List возвращает страницу слоев
func (uc *LayerUseCase) List(ctx context.Context, req dto.ListLayersRequest) (*dto.LayerListResponse, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	layers, total, err := uc.layerRepo.List(ctx, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &dto.LayerListResponse{
		Layers: layers,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// GetInfo возвращает метаданные слоя
func (uc *LayerUseCase) GetInfo(ctx context.Context, id uuid.UUID) (*domain.LayerInfo, error) {
	return uc.layerRepo.GetInfo(ctx, id)
}

// Load возвращает слой целиком, используя кеш когда возможно
func (uc *LayerUseCase) Load(ctx context.Context, id uuid.UUID) (*domain.Layer, error) {
	key := id.String()

	// 1. Проверяем кеш
	cached, err := uc.cacheRepo.GetLayer(ctx, key)
	if err != nil {
		uc.logger.Warn("Failed to get layer from cache", zap.String("layer_id", key), zap.Error(err))
	}
	if cached != nil {
		layer, err := layerio.Decode(cached, "")
		if err == nil {
			uc.logger.Debug("Layer fetched from cache", zap.String("layer_id", key))
			return layer, nil
		}
		uc.logger.Warn("Cached layer is corrupted, reloading", zap.String("layer_id", key), zap.Error(err))
	}

	// 2. Загружаем из БД
	layer, err := uc.layerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Кешируем
	data, err := layerio.Encode(layer)
	if err != nil {
		uc.logger.Warn("Failed to encode layer for cache", zap.String("layer_id", key), zap.Error(err))
		return layer, nil
	}
	if err := uc.cacheRepo.SetLayer(ctx, key, data, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to cache layer", zap.String("layer_id", key), zap.Error(err))
	}

	return layer, nil
}

// Export возвращает слой как GeoJSON FeatureCollection
func (uc *LayerUseCase) Export(ctx context.Context, id uuid.UUID) ([]byte, error) {
	layer, err := uc.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return layerio.Encode(layer)
}

// Delete удаляет слой и сбрасывает связанные записи кеша
func (uc *LayerUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.layerRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := uc.cacheRepo.InvalidateLayer(ctx, id.String()); err != nil {
		// Кеш истечет по TTL
		uc.logger.Warn("Failed to invalidate layer cache", zap.String("layer_id", id.String()), zap.Error(err))
	}

	uc.logger.Info("Layer deleted", zap.String("layer_id", id.String()))
	return nil
}

// checkFeatureLimit ограничивает число объектов, обрабатываемых за один запрос
func checkFeatureLimit(maxFeatures, n int) error {
	if maxFeatures > 0 && n > maxFeatures {
		return errors.ErrLayerTooLarge.WithDetails(map[string]interface{}{
			"features":     n,
			"max_features": maxFeatures,
		})
	}
	return nil
}
