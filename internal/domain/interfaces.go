package domain

import (
	"context"
	"time"
)

// CandidateRepo управляет очередью кандидатов.
type CandidateRepo interface {
	// ListUnconsumed возвращает необработанных кандидатов не старше maxAge,
	// свежие по времени обнаружения первыми. Непустой originFilter
	// ограничивает выборку одним источником.
	ListUnconsumed(ctx context.Context, maxAge time.Time, originFilter string) ([]CandidateUnit, error)
	// MarkConsumed помечает кандидата обработанным.
	MarkConsumed(ctx context.Context, id int64) error
	// IncrementFailure увеличивает счётчик неудач и возвращает новое значение.
	IncrementFailure(ctx context.Context, id int64) (int, error)
}

// EntryRepo управляет опубликованными заметками.
type EntryRepo interface {
	ListByDate(ctx context.Context, date time.Time) ([]PublishedEntry, error)
	// Insert вставляет заметку; при конфликте уникальности (слот дня или
	// нормализованный URL) возвращает false без ошибки.
	Insert(ctx context.Context, entry PublishedEntry, slotSeq int) (bool, error)
	// ExistsNormalizedURL проверяет, публиковался ли уже этот URL.
	ExistsNormalizedURL(ctx context.Context, normalized string) (bool, error)
	// ListTitlesBetween возвращает заголовки заметок, опубликованных
	// в датах от from до to включительно.
	ListTitlesBetween(ctx context.Context, from, to time.Time) ([]string, error)
}

// RunRepo хранит журнал запусков генерации.
type RunRepo interface {
	SaveRun(ctx context.Context, result RunResult) error
	ListRuns(ctx context.Context, date time.Time) ([]RunResult, error)
}

// ScheduleTaskRepo отвечает за идемпотентное планирование запусков.
type ScheduleTaskRepo interface {
	// Acquire помечает запуск на дату и возвращает true, если запись была
	// создана. При конфликте возвращает false без ошибки.
	Acquire(ctx context.Context, date time.Time, scheduledFor time.Time) (bool, error)
}

// Synthesizer превращает кандидата в черновики заметок.
// Пустой список означает "подходящего контента не нашлось" и не является ошибкой;
// ошибка возвращается только при сбое транспорта или полном отказе разбора.
type Synthesizer interface {
	Synthesize(ctx context.Context, candidate CandidateUnit) ([]DraftEntry, error)
}

// Cache защищает разовые действия распределённым замком с TTL.
type Cache interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}
