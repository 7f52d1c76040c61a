package summary_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/worker/summary"
)

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

// MockJobProcessor is a mock of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) Process(ctx context.Context, id uuid.UUID) (*domain.SummaryDoneEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryDoneEvent), args.Error(1)
}

func (m *MockJobProcessor) Fail(ctx context.Context, id uuid.UUID, reason string) (*domain.SummaryDoneEvent, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryDoneEvent), args.Error(1)
}

func newWorker(stream *MockStreamRepository, jobs *MockJobProcessor, maxRetries int) *summary.SummaryWorker {
	return summary.NewSummaryWorker(stream, jobs, "test-group", 5, maxRetries, zap.NewNop())
}

func requestMessage(t *testing.T, id string, jobID uuid.UUID) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(domain.SummaryRequestEvent{JobID: jobID})
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

// expectStartup stubs consumer group creation and an empty pending list
func expectStartup(stream *MockStreamRepository) {
	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamSummaryRequest, "test-group").Return(nil)
	stream.On("ClaimPending", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), mock.Anything, 5).
		Return([]domain.StreamMessage{}, nil)
}

// runUntil starts the worker and cancels it after d
func runUntil(t *testing.T, w *summary.SummaryWorker, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	time.Sleep(d)
	cancel()

	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
		return nil
	}
}

func TestSummaryWorker_Name(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockJobProcessor{}, 0)
	assert.Equal(t, "summary", w.Name())
}

func TestSummaryWorker_Stop(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockJobProcessor{}, 0)

	// Stop should not error even if not started
	assert.NoError(t, w.Stop())
	// Calling stop multiple times should be safe
	assert.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
}

func TestSummaryWorker_StopEndsLoop(t *testing.T) {
	stream := &MockStreamRepository{}
	expectStartup(stream)
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{}, nil)

	w := newWorker(stream, &MockJobProcessor{}, 0)
	done := make(chan error, 1)
	go func() {
		done <- w.Start(context.Background())
	}()

	time.Sleep(150 * time.Millisecond)
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSummaryWorker_ContextCancellation(t *testing.T) {
	stream := &MockStreamRepository{}
	expectStartup(stream)
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{}, nil)

	w := newWorker(stream, &MockJobProcessor{}, 0)

	err := runUntil(t, w, 200*time.Millisecond)
	assert.Equal(t, context.Canceled, err)
	stream.AssertExpectations(t)
}

func TestSummaryWorker_ConsumerGroupFailure(t *testing.T) {
	stream := &MockStreamRepository{}
	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamSummaryRequest, "test-group").
		Return(errors.New("redis down"))

	w := newWorker(stream, &MockJobProcessor{}, 0)

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer group")
	stream.AssertNotCalled(t, "ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	stream.AssertNotCalled(t, "ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSummaryWorker_BatchProcessing(t *testing.T) {
	stream := &MockStreamRepository{}
	jobs := &MockJobProcessor{}

	jobOK := uuid.New()
	jobFailed := uuid.New()
	jobGone := uuid.New()

	messages := []domain.StreamMessage{
		requestMessage(t, "1-0", jobOK),
		requestMessage(t, "2-0", jobFailed),
		requestMessage(t, "3-0", jobGone),
		{ID: "4-0", Data: "{not json"},
		{ID: "5-0", Data: ""},
	}

	expectStartup(stream)
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return(messages, nil).Once()
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{}, nil)

	okEvent := &domain.SummaryDoneEvent{JobID: jobOK, Status: domain.JobStatusDone, FragmentCount: 3, ZoneCount: 2}
	failedEvent := &domain.SummaryDoneEvent{JobID: jobFailed, Status: domain.JobStatusFailed, Error: "CONFIGURATION_ERROR"}

	jobs.On("Process", mock.Anything, jobOK).Return(okEvent, nil).Once()
	jobs.On("Process", mock.Anything, jobFailed).Return(failedEvent, nil).Once()
	// unknown job: nothing to publish, message is still acknowledged
	jobs.On("Process", mock.Anything, jobGone).Return(nil, nil).Once()

	stream.On("PublishToStream", mock.Anything, domain.StreamSummaryDone, okEvent).Return(nil).Once()
	stream.On("PublishToStream", mock.Anything, domain.StreamSummaryDone, failedEvent).Return(nil).Once()
	stream.On("AckMessages", mock.Anything, domain.StreamSummaryRequest, "test-group",
		mock.MatchedBy(func(ids []string) bool {
			sorted := append([]string(nil), ids...)
			sort.Strings(sorted)
			return reflect.DeepEqual([]string{"1-0", "2-0", "3-0", "4-0", "5-0"}, sorted)
		})).Return(nil).Once()

	w := newWorker(stream, jobs, 0)
	err := runUntil(t, w, 300*time.Millisecond)
	assert.Equal(t, context.Canceled, err)

	stream.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestSummaryWorker_ExhaustedRetriesFailJob(t *testing.T) {
	stream := &MockStreamRepository{}
	jobs := &MockJobProcessor{}

	jobID := uuid.New()
	failedEvent := &domain.SummaryDoneEvent{JobID: jobID, Status: domain.JobStatusFailed, Error: "connection refused"}

	expectStartup(stream)
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{requestMessage(t, "1-0", jobID)}, nil).Once()
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{}, nil)

	// one initial attempt plus one retry, then the job is marked failed
	jobs.On("Process", mock.Anything, jobID).Return(nil, errors.New("connection refused")).Twice()
	jobs.On("Fail", mock.Anything, jobID, "connection refused").Return(failedEvent, nil).Once()

	stream.On("PublishToStream", mock.Anything, domain.StreamSummaryDone, failedEvent).Return(nil).Once()
	stream.On("AckMessages", mock.Anything, domain.StreamSummaryRequest, "test-group", []string{"1-0"}).Return(nil).Once()

	w := newWorker(stream, jobs, 1)
	err := runUntil(t, w, 600*time.Millisecond)
	assert.Equal(t, context.Canceled, err)

	stream.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestSummaryWorker_FailUnavailableLeavesMessagePending(t *testing.T) {
	stream := &MockStreamRepository{}
	jobs := &MockJobProcessor{}

	jobID := uuid.New()

	expectStartup(stream)
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{requestMessage(t, "1-0", jobID)}, nil).Once()
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{}, nil)

	jobs.On("Process", mock.Anything, jobID).Return(nil, errors.New("connection refused")).Once()
	jobs.On("Fail", mock.Anything, jobID, "connection refused").Return(nil, errors.New("database unavailable")).Once()

	w := newWorker(stream, jobs, 0)
	err := runUntil(t, w, 300*time.Millisecond)
	assert.Equal(t, context.Canceled, err)

	jobs.AssertExpectations(t)
	stream.AssertNotCalled(t, "AckMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	stream.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummaryWorker_ReclaimsStalePendingOnStart(t *testing.T) {
	stream := &MockStreamRepository{}
	jobs := &MockJobProcessor{}

	jobID := uuid.New()
	event := &domain.SummaryDoneEvent{JobID: jobID, Status: domain.JobStatusDone, ZoneCount: 1}

	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamSummaryRequest, "test-group").Return(nil)
	stream.On("ClaimPending", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"),
		mock.AnythingOfType("time.Duration"), 5).
		Return([]domain.StreamMessage{requestMessage(t, "3-0", jobID)}, nil).Once()
	stream.On("ClaimPending", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"),
		mock.AnythingOfType("time.Duration"), 5).
		Return([]domain.StreamMessage{}, nil).Once()
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{}, nil)

	jobs.On("Process", mock.Anything, jobID).Return(event, nil).Once()
	stream.On("PublishToStream", mock.Anything, domain.StreamSummaryDone, event).Return(nil).Once()
	stream.On("AckMessages", mock.Anything, domain.StreamSummaryRequest, "test-group", []string{"3-0"}).Return(nil).Once()

	w := newWorker(stream, jobs, 0)
	err := runUntil(t, w, 300*time.Millisecond)
	assert.Equal(t, context.Canceled, err)

	stream.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestSummaryWorker_RetrySucceeds(t *testing.T) {
	stream := &MockStreamRepository{}
	jobs := &MockJobProcessor{}

	jobID := uuid.New()
	event := &domain.SummaryDoneEvent{JobID: jobID, Status: domain.JobStatusDone}

	expectStartup(stream)
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{requestMessage(t, "7-0", jobID)}, nil).Once()
	stream.On("ConsumeBatch", mock.Anything, domain.StreamSummaryRequest, "test-group", mock.AnythingOfType("string"), 5).
		Return([]domain.StreamMessage{}, nil)

	jobs.On("Process", mock.Anything, jobID).Return(nil, errors.New("timeout")).Once()
	jobs.On("Process", mock.Anything, jobID).Return(event, nil).Once()

	stream.On("PublishToStream", mock.Anything, domain.StreamSummaryDone, event).Return(nil).Once()
	stream.On("AckMessages", mock.Anything, domain.StreamSummaryRequest, "test-group", []string{"7-0"}).Return(nil).Once()

	w := newWorker(stream, jobs, 2)
	err := runUntil(t, w, 600*time.Millisecond)
	assert.Equal(t, context.Canceled, err)

	stream.AssertExpectations(t)
	jobs.AssertExpectations(t)
}
