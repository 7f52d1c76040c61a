package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/overlay"
)

// SummaryMeta - диагностика суммирования
type SummaryMeta struct {
	Statistic     string                   `json:"statistic"`
	JoinType      string                   `json:"join_type"`
	ZoneCount     int                      `json:"zone_count"`
	MatchedZones  int                      `json:"matched_zones"`
	FragmentCount int                      `json:"fragment_count"`
	Renamed       *overlay.Reconciliation  `json:"renamed,omitempty"`
	CoverageGaps  []overlay.SourceCoverage `json:"coverage_gaps,omitempty"`
	TimeMSec      float64                  `json:"time_ms"`
	Cached        bool                     `json:"cached"`
}

// SummarizeResponse - FeatureCollection зон с агрегатами и диагностика
type SummarizeResponse struct {
	Result json.RawMessage `json:"result" swaggertype:"object"`
	Meta   SummaryMeta     `json:"meta"`
}

// LayerListResponse - страница слоев
type LayerListResponse struct {
	Layers []domain.LayerInfo `json:"layers"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// JobResponse - состояние асинхронной задачи
type JobResponse struct {
	ID            uuid.UUID        `json:"id"`
	Status        domain.JobStatus `json:"status"`
	Statistic     domain.Statistic `json:"statistic"`
	ZoneLayerID   uuid.UUID        `json:"zone_layer_id"`
	SourceLayerID uuid.UUID        `json:"source_layer_id"`
	Key           string           `json:"key"`
	Columns       []string         `json:"columns"`
	JoinType      domain.JoinType  `json:"join_type"`
	Error         *string          `json:"error,omitempty"`
	FragmentCount *int             `json:"fragment_count,omitempty"`
	Result        json.RawMessage  `json:"result,omitempty" swaggertype:"object"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewJobResponse строит ответ из доменной задачи
func NewJobResponse(job *domain.SummaryJob) *JobResponse {
	return &JobResponse{
		ID:            job.ID,
		Status:        job.Status,
		Statistic:     job.Statistic,
		ZoneLayerID:   job.ZoneLayerID,
		SourceLayerID: job.SourceLayerID,
		Key:           job.Key,
		Columns:       job.Columns,
		JoinType:      job.JoinType,
		Error:         job.Error,
		FragmentCount: job.FragmentCount,
		Result:        job.Result,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}
