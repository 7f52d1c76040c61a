package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/spatial-summarize/internal/domain"
)

// JobRepository хранит асинхронные задачи суммирования
type JobRepository interface {
	Create(ctx context.Context, job *domain.SummaryJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryJob, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage, fragmentCount int) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}
