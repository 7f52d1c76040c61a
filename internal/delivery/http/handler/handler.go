package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/usecase/dto"
)

// Summarizer - синхронное суммирование
type Summarizer interface {
	Summarize(ctx context.Context, req dto.SummarizeRequest) (*dto.SummarizeResponse, error)
}

// LayerService - операции со слоями
type LayerService interface {
	Create(ctx context.Context, req dto.CreateLayerRequest) (*domain.LayerInfo, error)
	List(ctx context.Context, req dto.ListLayersRequest) (*dto.LayerListResponse, error)
	GetInfo(ctx context.Context, id uuid.UUID) (*domain.LayerInfo, error)
	Export(ctx context.Context, id uuid.UUID) ([]byte, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// JobService - асинхронные задачи
type JobService interface {
	Submit(ctx context.Context, req dto.SubmitJobRequest) (*dto.JobResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.JobResponse, error)
}

const geoJSONContentType = "application/geo+json"

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidRequest.WithMessage("invalid id %q", c.Params("id"))
	}
	return id, nil
}

func invalidBody(err error) error {
	return errors.ErrInvalidRequest.WithMessage("invalid request body").Wrap(err)
}
