package candidates

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"debate-daily/internal/domain"
)

// maxCandidateAgeDays — предельный возраст кандидата независимо от политики.
const maxCandidateAgeDays = 365

// Бонусы за хронометраж: длинная форма — прокси аналитической глубины.
const (
	durationBonusLong   = 20
	durationBonusMedium = 15
	durationBonusShort  = 10
)

// Service отбирает и ранжирует кандидатов на синтез.
type Service struct {
	repo  domain.CandidateRepo
	rules domain.RuleSource
	log   zerolog.Logger
}

// NewService создаёт источник кандидатов.
func NewService(repo domain.CandidateRepo, rules domain.RuleSource, logger zerolog.Logger) *Service {
	return &Service{repo: repo, rules: rules, log: logger}
}

// Eligible возвращает подходящих кандидатов по убыванию приоритета вместе
// с числом просмотренных записей. В тематические дни проверяется только
// хронометраж и возраст: привязка к источникам и ключевым словам отключается.
func (s *Service) Eligible(ctx context.Context, date time.Time, policy domain.DayPolicy, originFilter string) ([]domain.CandidateUnit, int, error) {
	rules, err := s.rules.Rules()
	if err != nil {
		s.log.Warn().Err(err).Msg("candidates: правила недоступны, источники считаются неотслеживаемыми")
		rules = domain.DayRules{}
	}

	maxAge := date.AddDate(0, 0, -maxCandidateAgeDays)
	units, err := s.repo.ListUnconsumed(ctx, maxAge, originFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка кандидатов: %w", err)
	}

	eligible := make([]domain.CandidateUnit, 0, len(units))
	for _, unit := range units {
		if !s.isEligible(unit, policy, rules) {
			continue
		}
		unit.PriorityScore = Score(unit, rules)
		eligible = append(eligible, unit)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].PriorityScore != eligible[j].PriorityScore {
			return eligible[i].PriorityScore > eligible[j].PriorityScore
		}
		return eligible[i].DiscoveredAt.After(eligible[j].DiscoveredAt)
	})
	return eligible, len(units), nil
}

func (s *Service) isEligible(unit domain.CandidateUnit, policy domain.DayPolicy, rules domain.DayRules) bool {
	if unit.Kind == domain.KindVideo && unit.DurationMinutes < policy.MinDurationMinutes {
		return false
	}
	if policy.ThemeDay {
		return true
	}
	if rules.OriginWeight(unit.OriginID) > 0 {
		return true
	}
	return matchesKeyword(unit, rules.TopicKeywords)
}

func matchesKeyword(unit domain.CandidateUnit, keywords []string) bool {
	haystack := strings.ToLower(unit.Title + " " + unit.Description)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// Score считает приоритет кандидата: вес источника, упоминания заметных
// персон и бонус за хронометраж.
func Score(unit domain.CandidateUnit, rules domain.DayRules) float64 {
	score := rules.OriginWeight(unit.OriginID) * 10

	haystack := strings.ToLower(unit.Title + " " + unit.Description)
	for _, person := range rules.NotablePersons {
		person = strings.ToLower(strings.TrimSpace(person))
		if person == "" {
			continue
		}
		if strings.Contains(haystack, person) {
			score += 5
		}
	}

	switch {
	case unit.DurationMinutes >= 120:
		score += durationBonusLong
	case unit.DurationMinutes >= 90:
		score += durationBonusMedium
	case unit.DurationMinutes >= 60:
		score += durationBonusShort
	}
	return score
}
