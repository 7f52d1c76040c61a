package usecase_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/spatial-summarize/internal/domain"
)

// MockLayerRepository is a mock of LayerRepository
type MockLayerRepository struct {
	mock.Mock
}

func (m *MockLayerRepository) Create(ctx context.Context, name string, layer *domain.Layer) (*domain.LayerInfo, error) {
	args := m.Called(ctx, name, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LayerInfo), args.Error(1)
}

func (m *MockLayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Layer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Layer), args.Error(1)
}

func (m *MockLayerRepository) GetInfo(ctx context.Context, id uuid.UUID) (*domain.LayerInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LayerInfo), args.Error(1)
}

func (m *MockLayerRepository) List(ctx context.Context, limit, offset int) ([]domain.LayerInfo, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.LayerInfo), args.Int(1), args.Error(2)
}

func (m *MockLayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) GetSummary(ctx context.Context, hash string) ([]byte, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) SetSummary(ctx context.Context, hash string, data []byte, ttl time.Duration, layerIDs ...string) error {
	args := m.Called(ctx, hash, data, ttl, layerIDs)
	return args.Error(0)
}

func (m *MockCacheRepository) GetLayer(ctx context.Context, layerID string) ([]byte, error) {
	args := m.Called(ctx, layerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) SetLayer(ctx context.Context, layerID string, data []byte, ttl time.Duration) error {
	args := m.Called(ctx, layerID, data, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) InvalidateLayer(ctx context.Context, layerID string) error {
	args := m.Called(ctx, layerID)
	return args.Error(0)
}

// MockJobRepository is a mock of JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *domain.SummaryJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryJob), args.Error(1)
}

func (m *MockJobRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobRepository) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage, fragmentCount int) error {
	args := m.Called(ctx, id, result, fragmentCount)
	return args.Error(0)
}

func (m *MockJobRepository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) ClaimPending(ctx context.Context, stream, group, consumer string, minIdle time.Duration, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, minIdle, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	args := m.Called(ctx, stream, group, messageIDs)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}
