package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"debate-daily/internal/domain"
	"debate-daily/internal/infra/metrics"
	"debate-daily/internal/usecase/candidates"
	"debate-daily/internal/usecase/dedup"
	"debate-daily/internal/usecase/policy"
	"debate-daily/internal/usecase/quality"
)

const (
	// DefaultSynthesisBudget ограничивает число вызовов синтеза за запуск:
	// синтез — единственный оплачиваемый внешний вызов.
	DefaultSynthesisBudget = 12
	// DefaultMaxConsecutiveFailures — порог предохранителя.
	DefaultMaxConsecutiveFailures = 5
	// consumeAfterFailures — после стольких неудач кандидат помечается
	// обработанным и больше не предлагается.
	consumeAfterFailures = 3
)

// RunOptions — параметры одного запуска генерации.
type RunOptions struct {
	Cause                  domain.RunCause
	DryRun                 bool
	MaxConsecutiveFailures int
	SynthesisBudget        int
	SourceFilter           string
}

// Service — контроллер цикла генерации: политика → дефицит → кандидаты →
// синтез → проверки → дубли → аллокация. Кандидаты обрабатываются строго
// последовательно: каждая успешная аллокация меняет доступность слотов.
type Service struct {
	resolver    *policy.Resolver
	source      *candidates.Service
	synthesizer domain.Synthesizer
	entries     domain.EntryRepo
	queue       domain.CandidateRepo
	runs        domain.RunRepo
	detector    *dedup.Detector
	allocator   *Allocator
	log         zerolog.Logger
}

// NewService создаёт контроллер генерации.
func NewService(resolver *policy.Resolver, source *candidates.Service, synthesizer domain.Synthesizer, entries domain.EntryRepo, queue domain.CandidateRepo, runs domain.RunRepo, detector *dedup.Detector, logger zerolog.Logger) *Service {
	return &Service{
		resolver:    resolver,
		source:      source,
		synthesizer: synthesizer,
		entries:     entries,
		queue:       queue,
		runs:        runs,
		detector:    detector,
		allocator:   NewAllocator(entries),
		log:         logger,
	}
}

// Run выполняет один запуск генерации за дату. Каким бы ни был исход,
// вызывающий всегда получает заполненный RunResult.
func (s *Service) Run(ctx context.Context, date time.Time, opts RunOptions) (domain.RunResult, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	if opts.Cause == "" {
		opts.Cause = domain.RunCauseManual
	}
	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	if opts.SynthesisBudget <= 0 {
		opts.SynthesisBudget = DefaultSynthesisBudget
	}

	result := domain.RunResult{
		RunID:     uuid.NewString(),
		Date:      day,
		StartedAt: time.Now().UTC(),
	}

	dayPolicy := s.resolver.Resolve(day)

	gap, err := s.freshGap(ctx, day, dayPolicy)
	if err != nil {
		return s.finish(ctx, result, opts, fmt.Errorf("вычисление дефицита: %w", err))
	}
	if !gap.NeedsMore {
		result.Reason = domain.StopNoGap
		return s.finish(ctx, result, opts, nil)
	}

	pool, scanned, err := s.source.Eligible(ctx, day, dayPolicy, opts.SourceFilter)
	if err != nil {
		return s.finish(ctx, result, opts, fmt.Errorf("отбор кандидатов: %w", err))
	}
	result.Scanned = scanned
	result.Eligible = len(pool)
	if len(pool) == 0 {
		result.Reason = domain.StopNoCandidates
		return s.finish(ctx, result, opts, nil)
	}

	if opts.DryRun {
		for _, unit := range pool {
			s.log.Info().Int64("candidate", unit.ID).Float64("score", unit.PriorityScore).Str("kind", string(unit.Kind)).Msg("generation: пробный запуск, кандидат оценён")
		}
		result.Reason = domain.StopDryRun
		return s.finish(ctx, result, opts, nil)
	}

	consecutiveFailures := 0
	for _, unit := range pool {
		if gap.TotalGap <= 0 {
			result.Reason = domain.StopGapClosed
			break
		}
		if result.Synthesized >= opts.SynthesisBudget {
			result.Reason = domain.StopBudgetExhausted
			break
		}
		if consecutiveFailures >= opts.MaxConsecutiveFailures {
			result.Reason = domain.StopCircuitBreaker
			metrics.CircuitBreakerTripsTotal.Inc()
			break
		}

		published, skipped, failed, notes := s.processCandidate(ctx, day, dayPolicy, &gap, unit)
		result.Notes = append(result.Notes, notes...)
		result.Published += published
		result.Skipped += skipped
		result.Failed += failed
		result.Synthesized++

		if published > 0 {
			consecutiveFailures = 0
		} else if failed > 0 {
			consecutiveFailures++
		}
	}

	if result.Reason == "" {
		switch {
		case gap.TotalGap <= 0:
			result.Reason = domain.StopGapClosed
		case consecutiveFailures >= opts.MaxConsecutiveFailures:
			result.Reason = domain.StopCircuitBreaker
			metrics.CircuitBreakerTripsTotal.Inc()
		case result.Synthesized >= opts.SynthesisBudget:
			result.Reason = domain.StopBudgetExhausted
		default:
			result.Reason = domain.StopNoCandidates
		}
	}
	return s.finish(ctx, result, opts, nil)
}

// processCandidate прогоняет одного кандидата через синтез, проверки,
// дубли и аллокацию. Возвращает число публикаций, пропусков и сбоев
// вместе с заметками по каждому исходу.
func (s *Service) processCandidate(ctx context.Context, day time.Time, dayPolicy domain.DayPolicy, gap *domain.Gap, unit domain.CandidateUnit) (published, skipped, failed int, notes []string) {
	drafts, err := s.synthesizer.Synthesize(ctx, unit)
	if err != nil {
		metrics.SynthesisFailuresTotal.Inc()
		s.bumpFailure(ctx, unit.ID)
		return 0, 0, 1, []string{fmt.Sprintf("кандидат %d: сбой синтеза: %v", unit.ID, err)}
	}
	if len(drafts) == 0 {
		metrics.IncSkipped("empty-synthesis")
		s.bumpFailure(ctx, unit.ID)
		return 0, 1, 0, []string{fmt.Sprintf("кандидат %d: синтез не дал черновиков", unit.ID)}
	}

	anyAllocated := false
	qualityRejected := false
	for _, draft := range drafts {
		report := quality.Evaluate(draft, quality.ThresholdGeneration)
		if report.Blocked() {
			qualityRejected = true
			skipped++
			metrics.IncSkipped("quality")
			for _, reason := range report.BlockReasons() {
				notes = append(notes, fmt.Sprintf("кандидат %d: отклонено контролем качества: %s", unit.ID, reason))
			}
			continue
		}

		dupReason, err := s.detector.Check(ctx, day, draft)
		if err != nil {
			notes = append(notes, fmt.Sprintf("кандидат %d: проверка дублей: %v", unit.ID, err))
			failed++
			continue
		}
		if dupReason != "" {
			skipped++
			metrics.IncSkipped("duplicate")
			notes = append(notes, fmt.Sprintf("кандидат %d: дубль: %s", unit.ID, dupReason))
			continue
		}

		ok, skipReason, err := s.allocator.Allocate(ctx, day, dayPolicy, *gap, draft)
		if err != nil {
			notes = append(notes, fmt.Sprintf("кандидат %d: аллокация: %v", unit.ID, err))
			failed++
			continue
		}
		if !ok {
			skipped++
			metrics.IncSkipped("allocation")
			notes = append(notes, fmt.Sprintf("кандидат %d: пропуск аллокации: %s", unit.ID, skipReason))
			continue
		}

		anyAllocated = true
		published++
		notes = append(notes, fmt.Sprintf("кандидат %d: опубликовано в слот %s", unit.ID, draft.TopicCode))

		fresh, gapErr := s.freshGap(ctx, day, dayPolicy)
		if gapErr != nil {
			s.log.Error().Err(gapErr).Msg("generation: не удалось пересчитать дефицит")
		} else {
			*gap = fresh
		}
		if gap.TotalGap <= 0 {
			break
		}
	}

	if anyAllocated {
		if err := s.queue.MarkConsumed(ctx, unit.ID); err != nil {
			s.log.Error().Err(err).Int64("candidate", unit.ID).Msg("generation: не удалось пометить кандидата")
		}
	} else if qualityRejected {
		failed++
		s.bumpFailure(ctx, unit.ID)
	}
	return published, skipped, failed, notes
}

// bumpFailure увеличивает счётчик неудач кандидата; после нескольких
// неудач кандидат выбывает из очереди.
func (s *Service) bumpFailure(ctx context.Context, id int64) {
	count, err := s.queue.IncrementFailure(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("candidate", id).Msg("generation: не удалось обновить счётчик неудач")
		return
	}
	if count >= consumeAfterFailures {
		if err := s.queue.MarkConsumed(ctx, id); err != nil {
			s.log.Error().Err(err).Int64("candidate", id).Msg("generation: не удалось исключить кандидата")
		}
	}
}

func (s *Service) freshGap(ctx context.Context, day time.Time, dayPolicy domain.DayPolicy) (domain.Gap, error) {
	list, err := s.entries.ListByDate(ctx, day)
	if err != nil {
		return domain.Gap{}, err
	}
	return ComputeGap(dayPolicy, list), nil
}

// finish фиксирует итог запуска в журнале и метриках.
func (s *Service) finish(ctx context.Context, result domain.RunResult, opts RunOptions, runErr error) (domain.RunResult, error) {
	result.FinishedAt = time.Now().UTC()
	if runErr != nil && result.Reason == "" {
		result.Reason = domain.StopInternalError
		result.Notes = append(result.Notes, runErr.Error())
	}
	metrics.ObserveRun(string(opts.Cause), string(result.Reason), result.FinishedAt.Sub(result.StartedAt), result.Published)
	if err := s.runs.SaveRun(ctx, result); err != nil {
		s.log.Error().Err(err).Str("run", result.RunID).Msg("generation: не удалось сохранить итог запуска")
	}
	s.log.Info().
		Str("run", result.RunID).
		Str("reason", string(result.Reason)).
		Int("published", result.Published).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("generation: запуск завершён")
	return result, runErr
}
