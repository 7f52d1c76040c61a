package repository

import (
	"context"
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// GetSummary получает результат суммирования по хешу запроса; промах возвращает nil, nil
	GetSummary(ctx context.Context, hash string) ([]byte, error)

	// SetSummary сохраняет результат суммирования и привязывает его к слоям-источникам
	SetSummary(ctx context.Context, hash string, data []byte, ttl time.Duration, layerIDs ...string) error

	// GetLayer получает закодированный слой
	GetLayer(ctx context.Context, layerID string) ([]byte, error)

	// SetLayer сохраняет закодированный слой
	SetLayer(ctx context.Context, layerID string, data []byte, ttl time.Duration) error

	// InvalidateLayer удаляет слой и все сводки, построенные по нему
	InvalidateLayer(ctx context.Context, layerID string) error
}
