package repository

import (
	"context"
	"time"

	"github.com/spatial-summarize/internal/domain"
)

// StreamRepository - интерфейс для работы с Redis Streams
type StreamRepository interface {
	// ConsumeBatch читает до maxCount новых сообщений без ожидания
	ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error)

	// ClaimPending переназначает consumer'у сообщения, неподтвержденные дольше minIdle
	ClaimPending(ctx context.Context, stream, group, consumer string, minIdle time.Duration, maxCount int) ([]domain.StreamMessage, error)

	// AckMessages подтверждает обработку нескольких сообщений
	AckMessages(ctx context.Context, stream, group string, messageIDs []string) error

	// CreateConsumerGroup создаёт consumer group
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream публикует сообщение в стрим
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
