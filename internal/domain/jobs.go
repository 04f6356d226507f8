package domain

import (
	"context"
	"time"
)

// RunCause описывает источник запроса на генерацию.
type RunCause string

const (
	// RunCauseManual — запуск запрошен оператором.
	RunCauseManual RunCause = "manual"
	// RunCauseScheduled — запуск создан планировщиком.
	RunCauseScheduled RunCause = "scheduled"
)

// GenerationJob — задача на запуск генерации за дату.
type GenerationJob struct {
	ID                     string    `json:"job_id"`
	Date                   time.Time `json:"date"`
	Cause                  RunCause  `json:"cause"`
	RequestedAt            time.Time `json:"requested_at"`
	DryRun                 bool      `json:"dry_run,omitempty"`
	MaxConsecutiveFailures int       `json:"max_consecutive_failures,omitempty"`
	SourceFilter           string    `json:"source_filter,omitempty"`
}

// RunAckFunc подтверждает обработку задачи или возвращает её в очередь.
type RunAckFunc func(success bool) error

// RunQueue — очередь задач на генерацию.
type RunQueue interface {
	Enqueue(ctx context.Context, job GenerationJob) error
	Receive(ctx context.Context) (GenerationJob, RunAckFunc, error)
}
