package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/domain/repository"
)

const (
	// batchBlock - короткое ожидание при пакетном чтении
	batchBlock = 50 * time.Millisecond
	dataField  = "data"
)

type streamRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStreamRepository создает новый экземпляр StreamRepository
func NewStreamRepository(client *redis.Client, logger *zap.Logger) repository.StreamRepository {
	return &streamRepository{
		client: client,
		logger: logger,
	}
}

// CreateConsumerGroup создаёт consumer group; MKSTREAM создаст стрим при необходимости
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			r.logger.Debug("Consumer group already exists",
				zap.String("stream", stream),
				zap.String("group", group))
			return nil
		}
		r.logger.Error("Failed to create consumer group",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	r.logger.Info("Consumer group created",
		zap.String("stream", stream),
		zap.String("group", group))
	return nil
}

// ConsumeBatch читает до maxCount новых сообщений, ожидая не дольше batchBlock
func (r *streamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	if maxCount <= 0 {
		maxCount = 1
	}
	return r.read(ctx, stream, group, consumer, int64(maxCount), batchBlock)
}

// ClaimPending забирает сообщения, неподтвержденные дольше minIdle, на consumer
func (r *streamRepository) ClaimPending(
	ctx context.Context,
	stream, group, consumer string,
	minIdle time.Duration,
	maxCount int,
) ([]domain.StreamMessage, error) {
	if maxCount <= 0 {
		maxCount = 1
	}
	claimed, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    int64(maxCount),
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to claim pending messages",
			zap.String("stream", stream),
			zap.String("consumer", consumer),
			zap.Error(err))
		return nil, fmt.Errorf("failed to claim pending messages: %w", err)
	}

	if len(claimed) > 0 {
		r.logger.Info("Claimed pending messages",
			zap.String("stream", stream),
			zap.String("consumer", consumer),
			zap.Int("count", len(claimed)))
	}
	return toStreamMessages(r.logger, claimed), nil
}

func (r *streamRepository) read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]domain.StreamMessage, error) {
	result, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() == nil {
			r.logger.Error("Failed to read from stream",
				zap.String("stream", stream),
				zap.String("consumer", consumer),
				zap.Error(err))
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	var messages []domain.StreamMessage
	for _, s := range result {
		messages = append(messages, toStreamMessages(r.logger, s.Messages)...)
	}
	return messages, nil
}

func toStreamMessages(logger *zap.Logger, raw []redis.XMessage) []domain.StreamMessage {
	messages := make([]domain.StreamMessage, 0, len(raw))
	for _, msg := range raw {
		data, ok := msg.Values[dataField].(string)
		if !ok {
			logger.Warn("Message does not contain 'data' field",
				zap.String("message_id", msg.ID))
			data = ""
		}
		messages = append(messages, domain.StreamMessage{ID: msg.ID, Data: data})
	}
	return messages
}

// AckMessages подтверждает обработку нескольких сообщений одной командой
func (r *streamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if err := r.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		r.logger.Error("Failed to acknowledge messages",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.Strings("message_ids", messageIDs),
			zap.Error(err))
		return fmt.Errorf("failed to acknowledge messages: %w", err)
	}

	r.logger.Debug("Messages acknowledged", zap.Int("count", len(messageIDs)))
	return nil
}

// PublishToStream сериализует data в JSON и публикует в поле "data"
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error("Failed to marshal data",
			zap.String("stream", stream),
			zap.Error(err))
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			dataField: string(jsonData),
		},
	}).Result()
	if err != nil {
		r.logger.Error("Failed to publish to stream",
			zap.String("stream", stream),
			zap.Error(err))
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	r.logger.Debug("Message published to stream",
		zap.String("stream", stream),
		zap.String("message_id", id))
	return nil
}
