package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/domain/repository"
	"github.com/spatial-summarize/internal/pkg/errors"
)

type jobRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewJobRepository создает новый экземпляр JobRepository
func NewJobRepository(db *DB) repository.JobRepository {
	return &jobRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type jobRow struct {
	ID            uuid.UUID      `db:"id"`
	Statistic     string         `db:"statistic"`
	ZoneLayerID   uuid.UUID      `db:"zone_layer_id"`
	SourceLayerID uuid.UUID      `db:"source_layer_id"`
	Key           string         `db:"key"`
	Columns       pq.StringArray `db:"columns"`
	JoinType      string         `db:"join_type"`
	Status        string         `db:"status"`
	Error         sql.NullString `db:"error"`
	Result        []byte         `db:"result"`
	FragmentCount sql.NullInt64  `db:"fragment_count"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (row jobRow) toDomain() *domain.SummaryJob {
	job := &domain.SummaryJob{
		ID:            row.ID,
		Statistic:     domain.Statistic(row.Statistic),
		ZoneLayerID:   row.ZoneLayerID,
		SourceLayerID: row.SourceLayerID,
		Key:           row.Key,
		Columns:       []string(row.Columns),
		JoinType:      domain.JoinType(row.JoinType),
		Status:        domain.JobStatus(row.Status),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.Error.Valid {
		msg := row.Error.String
		job.Error = &msg
	}
	if len(row.Result) > 0 {
		job.Result = json.RawMessage(row.Result)
	}
	if row.FragmentCount.Valid {
		n := int(row.FragmentCount.Int64)
		job.FragmentCount = &n
	}
	return job
}

// Create сохраняет новую задачу
func (r *jobRepository) Create(ctx context.Context, job *domain.SummaryJob) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO summary_jobs (id, statistic, zone_layer_id, source_layer_id, key, columns, join_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		job.ID, string(job.Statistic), job.ZoneLayerID, job.SourceLayerID,
		job.Key, pq.Array(job.Columns), string(job.JoinType), string(job.Status),
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create summary job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return errors.ErrDatabaseError.Wrap(err)
	}
	return nil
}

// GetByID возвращает задачу по ID
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryJob, error) {
	var row jobRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, statistic, zone_layer_id, source_layer_id, key, columns, join_type,
		       status, error, result, fragment_count, created_at, updated_at
		FROM summary_jobs
		WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrJobNotFound.WithDetails(map[string]interface{}{"job_id": id.String()})
	}
	if err != nil {
		r.logger.Error("Failed to get summary job", zap.String("job_id", id.String()), zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}
	return row.toDomain(), nil
}

// MarkRunning переводит задачу в статус running
func (r *jobRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, `
		UPDATE summary_jobs SET status = $2, error = NULL, updated_at = NOW()
		WHERE id = $1
	`, string(domain.JobStatusRunning))
}

// Complete сохраняет результат задачи
func (r *jobRepository) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage, fragmentCount int) error {
	return r.update(ctx, id, `
		UPDATE summary_jobs
		SET status = $2, result = $3::jsonb, fragment_count = $4, error = NULL, updated_at = NOW()
		WHERE id = $1
	`, string(domain.JobStatusDone), string(result), fragmentCount)
}

// Fail помечает задачу ошибочной
func (r *jobRepository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return r.update(ctx, id, `
		UPDATE summary_jobs SET status = $2, error = $3, updated_at = NOW()
		WHERE id = $1
	`, string(domain.JobStatusFailed), reason)
}

func (r *jobRepository) update(ctx context.Context, id uuid.UUID, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		r.logger.Error("Failed to update summary job", zap.String("job_id", id.String()), zap.Error(err))
		return errors.ErrDatabaseError.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.ErrDatabaseError.Wrap(err)
	}
	if n == 0 {
		return errors.ErrJobNotFound.WithDetails(map[string]interface{}{"job_id": id.String()})
	}
	return nil
}
