package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Worker - фоновый потребитель стрима под управлением WorkerManager
type Worker interface {
	// Start блокируется до остановки воркера или отмены ctx
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// BaseWorker содержит общую логику воркеров: имя, consumer group и сигнал остановки
type BaseWorker struct {
	name          string
	consumerGroup string
	logger        *zap.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
	stopped       atomic.Bool
}

// NewBaseWorker создает новый BaseWorker
func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	return &BaseWorker{
		name:          name,
		consumerGroup: consumerGroup,
		logger:        logger.With(zap.String("worker", name)),
		stopChan:      make(chan struct{}),
	}
}

func (w *BaseWorker) Name() string {
	return w.name
}

// Stop сигнализирует воркеру завершиться; повторный вызов ничего не делает
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker")
		w.stopped.Store(true)
		close(w.stopChan)
	})
	return nil
}

func (w *BaseWorker) IsStopped() bool {
	return w.stopped.Load()
}

func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

func (w *BaseWorker) ConsumerGroup() string {
	return w.consumerGroup
}

func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}

// Wait ждет d; возвращает false, если за это время пришел Stop или отменен ctx
func (w *BaseWorker) Wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopChan:
		return false
	}
}
