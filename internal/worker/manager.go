package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout - сколько Stop ждет завершения воркеров
const DefaultShutdownTimeout = 30 * time.Second

// WorkerManager запускает воркеры и собирает их ошибки
type WorkerManager struct {
	workers         []Worker
	logger          *zap.Logger
	shutdownTimeout time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	errs    []error
	done    chan struct{}
	started bool
}

// NewWorkerManager создает новый WorkerManager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{
		logger:          logger,
		shutdownTimeout: DefaultShutdownTimeout,
		done:            make(chan struct{}),
	}
}

// SetShutdownTimeout меняет время ожидания в Stop
func (m *WorkerManager) SetShutdownTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = d
}

func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Info("Worker registered", zap.String("name", w.Name()))
}

// Start запускает каждый воркер в своей горутине и сразу возвращается.
// Done закрывается, когда завершились все воркеры.
func (m *WorkerManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("workers already started")
	}
	if len(m.workers) == 0 {
		return fmt.Errorf("no workers registered")
	}
	m.started = true

	m.logger.Info("Starting workers", zap.Int("count", len(m.workers)))

	for _, w := range m.workers {
		m.wg.Add(1)
		go m.run(ctx, w)
	}

	go func() {
		m.wg.Wait()
		close(m.done)
	}()

	return nil
}

func (m *WorkerManager) run(ctx context.Context, w Worker) {
	defer m.wg.Done()

	m.logger.Info("Starting worker", zap.String("name", w.Name()))
	err := w.Start(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		m.logger.Info("Worker finished", zap.String("name", w.Name()))
		return
	}

	m.logger.Error("Worker failed", zap.String("name", w.Name()), zap.Error(err))
	m.mu.Lock()
	m.errs = append(m.errs, fmt.Errorf("%s: %w", w.Name(), err))
	m.mu.Unlock()
}

// Done закрывается после завершения всех запущенных воркеров
func (m *WorkerManager) Done() <-chan struct{} {
	return m.done
}

// Err возвращает ошибки упавших воркеров
func (m *WorkerManager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}

// Stop останавливает все воркеры и ждет их не дольше shutdownTimeout
func (m *WorkerManager) Stop() error {
	m.mu.Lock()
	workers := make([]Worker, len(m.workers))
	copy(workers, m.workers)
	started := m.started
	timeout := m.shutdownTimeout
	m.mu.Unlock()

	m.logger.Info("Stopping workers", zap.Int("count", len(workers)))

	for _, w := range workers {
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker",
				zap.String("name", w.Name()),
				zap.Error(err))
		}
	}

	if !started {
		return nil
	}

	select {
	case <-m.done:
		m.logger.Info("All workers stopped gracefully")
		return m.Err()
	case <-time.After(timeout):
		m.logger.Warn("Workers shutdown timed out, some jobs may be left pending",
			zap.Duration("timeout", timeout))
		return fmt.Errorf("workers shutdown timed out after %v", timeout)
	}
}
