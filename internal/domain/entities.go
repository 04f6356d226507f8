package domain

import (
	"strings"
	"time"
)

// CandidateKind различает виды кандидатного контента.
type CandidateKind string

const (
	// KindVideo — длинное видео, ожидающее анализа.
	KindVideo CandidateKind = "video"
	// KindArticle — синдицированная статья.
	KindArticle CandidateKind = "article"
)

// Stance — позиция заметки по ключевому вопросу топика.
type Stance string

const (
	// StanceYes — утвердительная позиция.
	StanceYes Stance = "yes"
	// StanceNo — отрицательная позиция.
	StanceNo Stance = "no"
)

// NormalizeStance приводит позицию к каноничной форме.
// Исторические значения "A"/"B" означают "yes"/"no".
func NormalizeStance(raw string) (Stance, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "a":
		return StanceYes, true
	case "no", "b":
		return StanceNo, true
	}
	return "", false
}

// CandidateUnit — обнаруженная, но ещё не обработанная единица контента.
// Записи не удаляются: после обработки остаются как журнал.
type CandidateUnit struct {
	ID              int64
	Kind            CandidateKind
	Title           string
	Description     string
	SourceURL       string
	PublishedAt     time.Time
	DurationMinutes int
	OriginID        string
	PriorityScore   float64
	Consumed        bool
	FailCount       int
	DiscoveredAt    time.Time
}

// DraftEntry — черновик заметки, результат синтеза по одному кандидату.
// Живёт только внутри одной итерации цикла генерации.
type DraftEntry struct {
	TopicCode         string
	Stance            Stance
	Title             string
	AuthorName        string
	AuthorBio         string
	SourceDescription string
	SourceURL         string
	BodyText          string
	Keywords          []string
}

// PublishedEntry — опубликованная заметка за конкретную дату.
type PublishedEntry struct {
	ID                int64     `json:"id"`
	Date              time.Time `json:"date"`
	TopicCode         string    `json:"topic_code"`
	Stance            Stance    `json:"stance"`
	Title             string    `json:"title"`
	AuthorName        string    `json:"author_name"`
	AuthorBio         string    `json:"author_bio"`
	SourceDescription string    `json:"source_description"`
	SourceURL         string    `json:"source_url"`
	NormalizedURL     string    `json:"normalized_url"`
	BodyText          string    `json:"body_text"`
	Keywords          []string  `json:"keywords"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Gap — вычисленный дефицит публикаций на дату.
// Всегда считается заново: между вызовами состав публикаций может меняться.
type Gap struct {
	CurrentCount     int
	TotalGap         int
	VideoGap         int
	NonVideoGap      int
	UsedSlots        map[string]int
	MissingCoreSlots []string
	AvailableSlots   []string
	NeedsMore        bool
}

// RunStopReason — причина завершения запуска генерации.
type RunStopReason string

const (
	// StopGapClosed — дефицит закрыт.
	StopGapClosed RunStopReason = "gap-closed"
	// StopNoGap — дефицита не было, запуск ничего не делал.
	StopNoGap RunStopReason = "no-gap"
	// StopBudgetExhausted — исчерпан бюджет вызовов синтеза.
	StopBudgetExhausted RunStopReason = "budget-exhausted"
	// StopCircuitBreaker — сработал предохранитель по подряд идущим сбоям.
	StopCircuitBreaker RunStopReason = "circuit-breaker"
	// StopNoCandidates — не нашлось подходящих кандидатов.
	StopNoCandidates RunStopReason = "no-candidates"
	// StopDryRun — пробный запуск без синтеза и записи.
	StopDryRun RunStopReason = "dry-run"
	// StopInternalError — запуск прерван инфраструктурной ошибкой
	// до или во время обработки кандидатов.
	StopInternalError RunStopReason = "internal-error"
)

// RunResult — итог одного запуска генерации.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Date        time.Time     `json:"date"`
	Scanned     int           `json:"scanned"`
	Eligible    int           `json:"eligible"`
	Synthesized int           `json:"synthesized"`
	Published   int           `json:"published"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Reason      RunStopReason `json:"reason"`
	Notes       []string      `json:"notes,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}
