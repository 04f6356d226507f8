package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"debate-daily/internal/domain"
	"debate-daily/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.CandidateRepo    = (*Postgres)(nil)
	_ domain.EntryRepo        = (*Postgres)(nil)
	_ domain.RunRepo          = (*Postgres)(nil)
	_ domain.ScheduleTaskRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// ListUnconsumed реализует domain.CandidateRepo.
func (p *Postgres) ListUnconsumed(ctx context.Context, maxAge time.Time, originFilter string) ([]domain.CandidateUnit, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, kind, title, description, source_url, published_at, duration_minutes, origin_id, fail_count, discovered_at
FROM candidates
WHERE NOT consumed
  AND published_at >= $1
  AND ($2 = '' OR origin_id = $2)
ORDER BY discovered_at DESC
`, maxAge, originFilter)
	metrics.ObserveNetworkRequest("postgres", "candidates_list", "candidates", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []domain.CandidateUnit
	for rows.Next() {
		var unit domain.CandidateUnit
		if err := rows.Scan(&unit.ID, &unit.Kind, &unit.Title, &unit.Description, &unit.SourceURL, &unit.PublishedAt, &unit.DurationMinutes, &unit.OriginID, &unit.FailCount, &unit.DiscoveredAt); err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// MarkConsumed реализует domain.CandidateRepo.
func (p *Postgres) MarkConsumed(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE candidates SET consumed = TRUE WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "candidates_consume", "candidates", start, err)
	return err
}

// IncrementFailure реализует domain.CandidateRepo.
func (p *Postgres) IncrementFailure(ctx context.Context, id int64) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
UPDATE candidates SET fail_count = fail_count + 1 WHERE id = $1
RETURNING fail_count
`, id).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "candidates_fail", "candidates", start, err)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListByDate реализует domain.EntryRepo.
func (p *Postgres) ListByDate(ctx context.Context, date time.Time) ([]domain.PublishedEntry, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, date, topic_code, stance, title, author_name, author_bio, source_description, source_url, normalized_url, body_text, keywords, created_at, updated_at
FROM entries
WHERE date = $1
ORDER BY id
`, date)
	metrics.ObserveNetworkRequest("postgres", "entries_list", "entries", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PublishedEntry
	for rows.Next() {
		var entry domain.PublishedEntry
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.TopicCode, &entry.Stance, &entry.Title, &entry.AuthorName, &entry.AuthorBio, &entry.SourceDescription, &entry.SourceURL, &entry.NormalizedURL, &entry.BodyText, &entry.Keywords, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Insert реализует domain.EntryRepo. Конфликт уникальности по слоту дня
// или нормализованному URL не считается ошибкой: вставка просто не
// происходит, и вызывающий видит false. Так гонка двух запусков
// превращается в отклонённую вставку, а не в испорченное состояние.
func (p *Postgres) Insert(ctx context.Context, entry domain.PublishedEntry, slotSeq int) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
INSERT INTO entries (date, topic_code, slot_seq, stance, title, author_name, author_bio, source_description, source_url, normalized_url, body_text, keywords, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
ON CONFLICT DO NOTHING
`, entry.Date, entry.TopicCode, slotSeq, entry.Stance, entry.Title, entry.AuthorName, entry.AuthorBio, entry.SourceDescription, entry.SourceURL, entry.NormalizedURL, entry.BodyText, entry.Keywords)
	metrics.ObserveNetworkRequest("postgres", "entries_insert", "entries", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExistsNormalizedURL реализует domain.EntryRepo.
func (p *Postgres) ExistsNormalizedURL(ctx context.Context, normalized string) (bool, error) {
	if normalized == "" {
		return false, nil
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE normalized_url = $1)`, normalized).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "entries_url_exists", "entries", start, err)
	return exists, err
}

// ListTitlesBetween реализует domain.EntryRepo.
func (p *Postgres) ListTitlesBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT title FROM entries WHERE date >= $1 AND date <= $2`, from, to)
	metrics.ObserveNetworkRequest("postgres", "entries_titles", "entries", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// SaveRun реализует domain.RunRepo.
func (p *Postgres) SaveRun(ctx context.Context, result domain.RunResult) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO generation_runs (run_id, date, scanned, eligible, synthesized, published, skipped, failed, reason, notes, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (run_id) DO NOTHING
`, result.RunID, result.Date, result.Scanned, result.Eligible, result.Synthesized, result.Published, result.Skipped, result.Failed, string(result.Reason), result.Notes, result.StartedAt, result.FinishedAt)
	metrics.ObserveNetworkRequest("postgres", "runs_insert", "generation_runs", start, err)
	return err
}

// ListRuns реализует domain.RunRepo.
func (p *Postgres) ListRuns(ctx context.Context, date time.Time) ([]domain.RunResult, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT run_id, date, scanned, eligible, synthesized, published, skipped, failed, reason, notes, started_at, finished_at
FROM generation_runs
WHERE date = $1
ORDER BY started_at DESC
`, date)
	metrics.ObserveNetworkRequest("postgres", "runs_list", "generation_runs", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RunResult
	for rows.Next() {
		var result domain.RunResult
		var reason string
		if err := rows.Scan(&result.RunID, &result.Date, &result.Scanned, &result.Eligible, &result.Synthesized, &result.Published, &result.Skipped, &result.Failed, &reason, &result.Notes, &result.StartedAt, &result.FinishedAt); err != nil {
			return nil, err
		}
		result.Reason = domain.RunStopReason(reason)
		results = append(results, result)
	}
	return results, rows.Err()
}

// Acquire реализует domain.ScheduleTaskRepo: запись на дату создаётся
// не более одного раза, конфликт означает, что запуск уже запланирован.
func (p *Postgres) Acquire(ctx context.Context, date time.Time, scheduledFor time.Time) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
INSERT INTO schedule_tasks (date, scheduled_for)
VALUES ($1, $2)
ON CONFLICT (date) DO NOTHING
`, date, scheduledFor)
	metrics.ObserveNetworkRequest("postgres", "schedule_acquire", "schedule_tasks", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
