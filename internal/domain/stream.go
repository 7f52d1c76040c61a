package domain

import "github.com/google/uuid"

// Stream names
const (
	StreamSummaryRequest = "stream:summary:request"
	StreamSummaryDone    = "stream:summary:done"
)

// SummaryRequestEvent - входящее событие на расчет сводки
type SummaryRequestEvent struct {
	JobID uuid.UUID `json:"job_id"`
}

// SummaryDoneEvent - результат расчета сводки
type SummaryDoneEvent struct {
	JobID         uuid.UUID `json:"job_id"`
	Status        JobStatus `json:"status"`
	FragmentCount int       `json:"fragment_count,omitempty"`
	ZoneCount     int       `json:"zone_count,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
