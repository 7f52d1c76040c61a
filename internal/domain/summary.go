package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Statistic - способ агрегации взвешенных значений по зоне
type Statistic string

const (
	StatisticSum  Statistic = "sum"
	StatisticMean Statistic = "mean"
	StatisticMin  Statistic = "min"
	StatisticMax  Statistic = "max"
)

// Statistics перечисляет поддерживаемые статистики
var Statistics = []Statistic{StatisticSum, StatisticMean, StatisticMin, StatisticMax}

// IsValid проверяет, что статистика поддерживается
func (s Statistic) IsValid() bool {
	switch s {
	case StatisticSum, StatisticMean, StatisticMin, StatisticMax:
		return true
	}
	return false
}

// JoinType - режим присоединения агрегатов к зонам
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinOuter JoinType = "outer"
)

// IsValid проверяет, что тип join поддерживается
func (j JoinType) IsValid() bool {
	switch j {
	case JoinInner, JoinLeft, JoinRight, JoinOuter:
		return true
	}
	return false
}

// JobStatus - статус асинхронной задачи суммирования
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// SummaryJob - асинхронная задача суммирования по сохраненным слоям
type SummaryJob struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Statistic     Statistic       `json:"statistic" db:"statistic"`
	ZoneLayerID   uuid.UUID       `json:"zone_layer_id" db:"zone_layer_id"`
	SourceLayerID uuid.UUID       `json:"source_layer_id" db:"source_layer_id"`
	Key           string          `json:"key" db:"key"`
	Columns       []string        `json:"columns" db:"-"`
	JoinType      JoinType        `json:"join_type" db:"join_type"`
	Status        JobStatus       `json:"status" db:"status"`
	Error         *string         `json:"error,omitempty" db:"error"`
	Result        json.RawMessage `json:"result,omitempty" db:"result"`
	FragmentCount *int            `json:"fragment_count,omitempty" db:"fragment_count"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// IsFinished проверяет, что задача завершена
func (j *SummaryJob) IsFinished() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
