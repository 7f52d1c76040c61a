package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingWorker runs until stopped or cancelled
type blockingWorker struct {
	*BaseWorker
	started atomic.Bool
}

func newBlockingWorker(name string) *blockingWorker {
	return &blockingWorker{BaseWorker: NewBaseWorker(name, "test-group", zap.NewNop())}
}

func (w *blockingWorker) Start(ctx context.Context) error {
	w.started.Store(true)
	select {
	case <-w.StopChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestWorkerManager_NoWorkers(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	w1 := newBlockingWorker("first")
	w2 := newBlockingWorker("second")
	m.Register(w1)
	m.Register(w2)

	require.NoError(t, m.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return w1.started.Load() && w2.started.Load()
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.True(t, w1.IsStopped())
	assert.True(t, w2.IsStopped())
}

func TestBaseWorker_Accessors(t *testing.T) {
	w := NewBaseWorker("summary", "group", zap.NewNop())

	assert.Equal(t, "summary", w.Name())
	assert.Equal(t, "group", w.ConsumerGroup())
	assert.NotNil(t, w.Logger())
	assert.False(t, w.IsStopped())

	require.NoError(t, w.Stop())
	select {
	case <-w.StopChan():
	default:
		t.Fatal("stop channel not closed")
	}
}

// failingWorker returns an error right after start
type failingWorker struct {
	*BaseWorker
	err error
}

func (w *failingWorker) Start(context.Context) error {
	return w.err
}

// stuckWorker ignores stop signals
type stuckWorker struct {
	*BaseWorker
	release chan struct{}
}

func (w *stuckWorker) Start(context.Context) error {
	<-w.release
	return nil
}

func TestWorkerManager_CollectsErrors(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	m.Register(&failingWorker{
		BaseWorker: NewBaseWorker("broken", "g", zap.NewNop()),
		err:        errors.New("consumer group"),
	})

	require.NoError(t, m.Start(context.Background()))

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("manager did not report completion")
	}

	err := m.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: consumer group")
	assert.Error(t, m.Stop())
}

func TestWorkerManager_CancelledContextIsNotAnError(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	m.Register(newBlockingWorker("blocking"))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	cancel()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit on cancel")
	}
	assert.NoError(t, m.Err())
}

func TestWorkerManager_StartTwice(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	m.Register(newBlockingWorker("blocking"))

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())
}

func TestWorkerManager_StopTimeout(t *testing.T) {
	w := &stuckWorker{BaseWorker: NewBaseWorker("stuck", "g", zap.NewNop()), release: make(chan struct{})}
	defer close(w.release)

	m := NewWorkerManager(zap.NewNop())
	m.SetShutdownTimeout(50 * time.Millisecond)
	m.Register(w)

	require.NoError(t, m.Start(context.Background()))
	err := m.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestBaseWorker_Wait(t *testing.T) {
	w := NewBaseWorker("summary", "group", zap.NewNop())
	assert.True(t, w.Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, w.Wait(ctx, time.Second))

	require.NoError(t, w.Stop())
	assert.False(t, w.Wait(context.Background(), time.Second))
}
