package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/domain/repository"
	"github.com/spatial-summarize/internal/worker"
)

const (
	defaultBatchSize = 10
	emptyQueueSleep  = 100 * time.Millisecond // пауза если очередь пуста
	errorSleep       = time.Second
	retryBackoff     = 200 * time.Millisecond
	// maxParallelJobs - сколько задач пакета считается одновременно
	maxParallelJobs = 4
	// pendingMinIdle - через сколько неподтвержденное сообщение считается брошенным
	pendingMinIdle = 5 * time.Minute
)

// JobProcessor выполняет задачу суммирования по ID
type JobProcessor interface {
	Process(ctx context.Context, id uuid.UUID) (*domain.SummaryDoneEvent, error)
	// Fail переводит задачу в failed после исчерпания повторов
	Fail(ctx context.Context, id uuid.UUID, reason string) (*domain.SummaryDoneEvent, error)
}

// SummaryWorker обрабатывает события stream:summary:request
type SummaryWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	jobUC        JobProcessor
	consumerName string
	batchSize    int
	maxRetries   int
}

// NewSummaryWorker создает новый SummaryWorker
func NewSummaryWorker(
	streamRepo repository.StreamRepository,
	jobUC JobProcessor,
	consumerGroup string,
	batchSize int,
	maxRetries int,
	logger *zap.Logger,
) *SummaryWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &SummaryWorker{
		BaseWorker:   worker.NewBaseWorker("summary", consumerGroup, logger),
		streamRepo:   streamRepo,
		jobUC:        jobUC,
		consumerName: consumerName,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
	}
}

// Start запускает воркер
func (w *SummaryWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting SummaryWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("batch_size", w.batchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamSummaryRequest, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.reclaimPending(ctx)

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.Wait(ctx, errorSleep)
				continue
			}

			if processed == 0 {
				w.Wait(ctx, emptyQueueSleep)
			}
		}
	}
}

// reclaimPending забирает сообщения, брошенные упавшими consumer'ами группы.
// Повторно забранное сообщение не будет снова считаться брошенным раньше pendingMinIdle.
func (w *SummaryWorker) reclaimPending(ctx context.Context) {
	for ctx.Err() == nil && !w.IsStopped() {
		messages, err := w.streamRepo.ClaimPending(
			ctx,
			domain.StreamSummaryRequest,
			w.ConsumerGroup(),
			w.consumerName,
			pendingMinIdle,
			w.batchSize,
		)
		if err != nil {
			w.Logger().Warn("Failed to reclaim pending messages", zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}
		w.Logger().Info("Reclaimed pending messages", zap.Int("message_count", len(messages)))
		w.processMessages(ctx, messages)
	}
}

// processBatch читает пакет событий, считает задачи и подтверждает обработанные.
// Возвращает количество прочитанных сообщений.
func (w *SummaryWorker) processBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamSummaryRequest,
		w.ConsumerGroup(),
		w.consumerName,
		w.batchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	w.processMessages(ctx, messages)
	return len(messages), nil
}

func (w *SummaryWorker) processMessages(ctx context.Context, messages []domain.StreamMessage) {
	logger := w.Logger()
	logger.Info("Processing batch", zap.Int("message_count", len(messages)))

	var (
		mu     sync.Mutex
		acked  = make([]string, 0, len(messages))
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelJobs)

	for _, msg := range messages {
		msg := msg
		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// ACK битое сообщение чтобы не застревало
			mu.Lock()
			acked = append(acked, msg.ID)
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			done, err := w.processWithRetry(gctx, event.JobID)
			if err != nil {
				logger.Error("Summary job processing failed",
					zap.String("message_id", msg.ID),
					zap.String("job_id", event.JobID.String()),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()

				if gctx.Err() != nil || w.IsStopped() {
					// Остановка воркера: сообщение заберет следующий запуск
					return nil
				}
				done, err = w.jobUC.Fail(gctx, event.JobID, err.Error())
				if err != nil {
					// Сообщение остается в pending и будет забрано reclaimPending
					logger.Error("Failed to mark summary job as failed",
						zap.String("job_id", event.JobID.String()),
						zap.Error(err))
					return nil
				}
			}

			if done != nil {
				if err := w.streamRepo.PublishToStream(gctx, domain.StreamSummaryDone, done); err != nil {
					logger.Error("Failed to publish done event",
						zap.String("job_id", event.JobID.String()),
						zap.Error(err))
				}
			}

			mu.Lock()
			acked = append(acked, msg.ID)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(acked) > 0 {
		if err := w.streamRepo.AckMessages(ctx, domain.StreamSummaryRequest, w.ConsumerGroup(), acked); err != nil {
			// Завершенные задачи повторно не пересчитываются
			logger.Error("Failed to ack messages", zap.Error(err))
		}
	}

	logger.Info("Batch processed",
		zap.Int("acked", len(acked)),
		zap.Int("failed", failed))
}

func (w *SummaryWorker) processWithRetry(ctx context.Context, jobID uuid.UUID) (*domain.SummaryDoneEvent, error) {
	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 && !w.Wait(ctx, retryBackoff*time.Duration(attempt)) {
			return nil, fmt.Errorf("retry interrupted: %w", lastErr)
		}

		done, err := w.jobUC.Process(ctx, jobID)
		if err == nil {
			return done, nil
		}
		lastErr = err
		w.Logger().Warn("Summary job attempt failed",
			zap.String("job_id", jobID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, lastErr
}

// parseMessage парсит сообщение из стрима в SummaryRequestEvent
func parseMessage(msg domain.StreamMessage) (*domain.SummaryRequestEvent, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("missing 'data' field")
	}

	var event domain.SummaryRequestEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.JobID == uuid.Nil {
		return nil, fmt.Errorf("event has no job_id")
	}

	return &event, nil
}
