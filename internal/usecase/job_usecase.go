package usecase

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/domain/repository"
	"github.com/spatial-summarize/internal/overlay"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/pkg/validator"
	"github.com/spatial-summarize/internal/usecase/dto"
)

// JobUseCase ставит и выполняет асинхронные задачи суммирования
type JobUseCase struct {
	jobRepo     repository.JobRepository
	streamRepo  repository.StreamRepository
	layerUC     *LayerUseCase
	summarizeUC *SummarizeUseCase
	logger      *zap.Logger
}

// NewJobUseCase создает новый экземпляр JobUseCase
func NewJobUseCase(
	jobRepo repository.JobRepository,
	streamRepo repository.StreamRepository,
	layerUC *LayerUseCase,
	summarizeUC *SummarizeUseCase,
	logger *zap.Logger,
) *JobUseCase {
	return &JobUseCase{
		jobRepo:     jobRepo,
		streamRepo:  streamRepo,
		layerUC:     layerUC,
		summarizeUC: summarizeUC,
		logger:      logger,
	}
}

// Submit сохраняет задачу и публикует событие в stream:summary:request
func (uc *JobUseCase) Submit(ctx context.Context, req dto.SubmitJobRequest) (*dto.JobResponse, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	// Слои должны существовать на момент постановки
	for _, id := range []uuid.UUID{req.ZoneLayerID, req.SourceLayerID} {
		if _, err := uc.layerUC.GetInfo(ctx, id); err != nil {
			return nil, err
		}
	}

	job := &domain.SummaryJob{
		ID:            uuid.New(),
		Statistic:     domain.Statistic(req.Statistic),
		ZoneLayerID:   req.ZoneLayerID,
		SourceLayerID: req.SourceLayerID,
		Key:           req.Key,
		Columns:       req.Columns,
		JoinType:      domain.JoinType(req.JoinType),
		Status:        domain.JobStatusPending,
	}
	if job.JoinType == "" {
		job.JoinType = uc.summarizeUC.engineCfg.DefaultJoin
	}

	if err := uc.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamSummaryRequest, &domain.SummaryRequestEvent{JobID: job.ID}); err != nil {
		uc.logger.Error("Failed to publish summary request", zap.String("job_id", job.ID.String()), zap.Error(err))
		_ = uc.jobRepo.Fail(ctx, job.ID, "failed to enqueue job")
		return nil, errors.ErrInternalServer.WithMessage("failed to enqueue job").Wrap(err)
	}

	uc.logger.Info("Summary job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("statistic", string(job.Statistic)))
	return dto.NewJobResponse(job), nil
}

// Get возвращает состояние задачи
func (uc *JobUseCase) Get(ctx context.Context, id uuid.UUID) (*dto.JobResponse, error) {
	job, err := uc.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewJobResponse(job), nil
}

// Process выполняет задачу и возвращает событие завершения.
// Ошибки входных данных переводят задачу в failed и не возвращаются;
// ошибка возвращается только для сбоев инфраструктуры, чтобы сообщение осталось неподтвержденным.
func (uc *JobUseCase) Process(ctx context.Context, id uuid.UUID) (*domain.SummaryDoneEvent, error) {
	job, err := uc.jobRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrJobNotFound) {
			uc.logger.Warn("Summary job not found, skipping", zap.String("job_id", id.String()))
			return nil, nil
		}
		return nil, err
	}

	if job.IsFinished() {
		uc.logger.Debug("Summary job already finished", zap.String("job_id", id.String()))
		return doneEvent(job, 0, 0), nil
	}

	if err := uc.jobRepo.MarkRunning(ctx, id); err != nil {
		return nil, err
	}

	resp, err := uc.run(ctx, job)
	if err != nil {
		if !isInputError(err) {
			return nil, err
		}
		return uc.markFailed(ctx, job, err.Error())
	}

	if err := uc.jobRepo.Complete(ctx, id, resp.Result, resp.Meta.FragmentCount); err != nil {
		return nil, err
	}

	uc.logger.Info("Summary job completed",
		zap.String("job_id", id.String()),
		zap.Int("zones", resp.Meta.ZoneCount),
		zap.Int("fragments", resp.Meta.FragmentCount))
	job.Status = domain.JobStatusDone
	return doneEvent(job, resp.Meta.FragmentCount, resp.Meta.ZoneCount), nil
}

// Fail переводит задачу в failed, когда сбой инфраструктуры не устранился повторами.
// Завершенная задача не меняется; неизвестная задача пропускается.
func (uc *JobUseCase) Fail(ctx context.Context, id uuid.UUID, reason string) (*domain.SummaryDoneEvent, error) {
	job, err := uc.jobRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrJobNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if job.IsFinished() {
		return doneEvent(job, 0, 0), nil
	}
	return uc.markFailed(ctx, job, reason)
}

func (uc *JobUseCase) markFailed(ctx context.Context, job *domain.SummaryJob, reason string) (*domain.SummaryDoneEvent, error) {
	if err := uc.jobRepo.Fail(ctx, job.ID, reason); err != nil {
		return nil, err
	}
	uc.logger.Warn("Summary job failed", zap.String("job_id", job.ID.String()), zap.String("reason", reason))
	job.Status = domain.JobStatusFailed
	job.Error = &reason
	return doneEvent(job, 0, 0), nil
}

func (uc *JobUseCase) run(ctx context.Context, job *domain.SummaryJob) (*dto.SummarizeResponse, error) {
	zones, err := uc.layerUC.Load(ctx, job.ZoneLayerID)
	if err != nil {
		return nil, err
	}
	sources, err := uc.layerUC.Load(ctx, job.SourceLayerID)
	if err != nil {
		return nil, err
	}
	if err := checkFeatureLimit(uc.summarizeUC.maxFeatures, zones.Len()+sources.Len()); err != nil {
		return nil, err
	}

	return uc.summarizeUC.Compute(zones, sources, job.Statistic, overlay.Options{
		Columns:  job.Columns,
		Key:      job.Key,
		JoinType: job.JoinType,
	})
}

// isInputError - ошибка, которую повтор не исправит
func isInputError(err error) bool {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.StatusCode >= http.StatusBadRequest && appErr.StatusCode < http.StatusInternalServerError
}

func doneEvent(job *domain.SummaryJob, fragments, zones int) *domain.SummaryDoneEvent {
	ev := &domain.SummaryDoneEvent{
		JobID:         job.ID,
		Status:        job.Status,
		FragmentCount: fragments,
		ZoneCount:     zones,
	}
	if job.Error != nil {
		ev.Error = *job.Error
	}
	if fragments == 0 && job.FragmentCount != nil {
		ev.FragmentCount = *job.FragmentCount
	}
	return ev
}
