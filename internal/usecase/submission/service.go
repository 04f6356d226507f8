package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"debate-daily/internal/domain"
	"debate-daily/internal/usecase/dedup"
	"debate-daily/internal/usecase/generation"
	"debate-daily/internal/usecase/policy"
	"debate-daily/internal/usecase/quality"
)

// ErrQualityBlocked возвращается, если заметка не прошла контроль качества.
var ErrQualityBlocked = errors.New("заметка не прошла контроль качества")

// ErrDuplicate возвращается, если заметка дублирует уже опубликованную.
var ErrDuplicate = errors.New("заметка дублирует опубликованную")

// ErrNoCapacity возвращается, если слот или дневной лимит не позволяют публикацию.
var ErrNoCapacity = errors.New("нет свободного слота для публикации")

// Service — прямая подача готовой заметки в обход синтеза. Проверки те же,
// что и в цикле генерации: привилегированного пути мимо квот и дублей нет.
type Service struct {
	resolver  *policy.Resolver
	entries   domain.EntryRepo
	detector  *dedup.Detector
	allocator *generation.Allocator
	log       zerolog.Logger
}

// NewService создаёт сервис ручной подачи.
func NewService(resolver *policy.Resolver, entries domain.EntryRepo, detector *dedup.Detector, logger zerolog.Logger) *Service {
	return &Service{
		resolver:  resolver,
		entries:   entries,
		detector:  detector,
		allocator: generation.NewAllocator(entries),
		log:       logger,
	}
}

// Submit публикует заметку на дату, прогоняя её через контроль качества,
// детектор дублей и аллокатор.
func (s *Service) Submit(ctx context.Context, date time.Time, draft domain.DraftEntry) (domain.PublishedEntry, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	if stance, ok := domain.NormalizeStance(string(draft.Stance)); ok {
		draft.Stance = stance
	}

	report := quality.Evaluate(draft, quality.ThresholdPublish)
	if report.Blocked() {
		return domain.PublishedEntry{}, fmt.Errorf("%w: %s", ErrQualityBlocked, strings.Join(report.BlockReasons(), "; "))
	}

	dupReason, err := s.detector.Check(ctx, day, draft)
	if err != nil {
		return domain.PublishedEntry{}, fmt.Errorf("проверка дублей: %w", err)
	}
	if dupReason != "" {
		return domain.PublishedEntry{}, fmt.Errorf("%w: %s", ErrDuplicate, dupReason)
	}

	dayPolicy := s.resolver.Resolve(day)
	published, err := s.entries.ListByDate(ctx, day)
	if err != nil {
		return domain.PublishedEntry{}, fmt.Errorf("чтение публикаций: %w", err)
	}
	gap := generation.ComputeGap(dayPolicy, published)

	ok, skipReason, err := s.allocator.Allocate(ctx, day, dayPolicy, gap, draft)
	if err != nil {
		return domain.PublishedEntry{}, err
	}
	if !ok {
		return domain.PublishedEntry{}, fmt.Errorf("%w: %s", ErrNoCapacity, skipReason)
	}

	s.log.Info().Str("topic", draft.TopicCode).Msg("submission: заметка опубликована вручную")
	return domain.PublishedEntry{
		Date:              day,
		TopicCode:         draft.TopicCode,
		Stance:            draft.Stance,
		Title:             draft.Title,
		AuthorName:        draft.AuthorName,
		AuthorBio:         draft.AuthorBio,
		SourceDescription: draft.SourceDescription,
		SourceURL:         draft.SourceURL,
		NormalizedURL:     dedup.NormalizeURL(draft.SourceURL),
		BodyText:          draft.BodyText,
		Keywords:          draft.Keywords,
	}, nil
}
