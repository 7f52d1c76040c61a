package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/spatial-summarize/internal/domain"
)

// LayerRepository хранит полигональные слои
type LayerRepository interface {
	// Create сохраняет слой и возвращает его метаданные
	Create(ctx context.Context, name string, layer *domain.Layer) (*domain.LayerInfo, error)

	// GetByID загружает слой целиком в порядке объектов
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Layer, error)

	// GetInfo возвращает метаданные слоя
	GetInfo(ctx context.Context, id uuid.UUID) (*domain.LayerInfo, error)

	// List возвращает метаданные слоев и общее количество
	List(ctx context.Context, limit, offset int) ([]domain.LayerInfo, int, error)

	// Delete удаляет слой вместе с объектами
	Delete(ctx context.Context, id uuid.UUID) error
}
