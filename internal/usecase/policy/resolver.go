package policy

import (
	"time"

	"github.com/rs/zerolog"

	"debate-daily/internal/domain"
)

// Resolver вычисляет квотную политику на дату по правилам из RuleSource.
// Resolve никогда не возвращает ошибку: при недоступном или некорректном
// источнике подставляется безопасная политика по умолчанию.
type Resolver struct {
	source domain.RuleSource
	log    zerolog.Logger
}

// NewResolver создаёт резолвер.
func NewResolver(source domain.RuleSource, logger zerolog.Logger) *Resolver {
	return &Resolver{source: source, log: logger}
}

// SafeDefault — политика, применяемая при сбое источника правил.
func SafeDefault() domain.DayPolicy {
	one := 1
	return domain.DayPolicy{
		MinItems:           6,
		MaxItems:           8,
		MaxPerSlot:         &one,
		MinDurationMinutes: 40,
		MinVideoItems:      2,
		MinNonVideoItems:   2,
	}
}

// Resolve возвращает политику на дату: базовую либо слитую с тематическим днём.
func (r *Resolver) Resolve(date time.Time) domain.DayPolicy {
	rules, err := r.source.Rules()
	if err != nil {
		r.log.Warn().Err(err).Msg("policy: правила недоступны, применяю политику по умолчанию")
		return SafeDefault()
	}

	base := fromSpec(rules.Default)
	if !valid(base) {
		r.log.Warn().Msg("policy: базовая политика некорректна, применяю политику по умолчанию")
		base = SafeDefault()
	}

	for _, theme := range rules.ThemeDays {
		if !theme.Matches(date) {
			continue
		}
		merged := applyPatch(base, theme.Override)
		merged.ThemeDay = true
		merged.EventLabel = theme.Label
		if !valid(merged) {
			r.log.Warn().Str("event", theme.Label).Msg("policy: переопределение некорректно, применяю базовую политику")
			return base
		}
		return merged
	}
	return base
}

func fromSpec(spec domain.PolicySpec) domain.DayPolicy {
	policy := domain.DayPolicy{
		MinItems:           spec.MinItems,
		MaxItems:           spec.MaxItems,
		MinDurationMinutes: spec.MinDurationMinutes,
		MinVideoItems:      spec.MinVideoItems,
		MinNonVideoItems:   spec.MinNonVideoItems,
		FrequencyFlex:      spec.FrequencyFlex,
		ContentTypeFlex:    spec.ContentTypeFlex,
	}
	if spec.MaxPerSlot != nil {
		limit := *spec.MaxPerSlot
		policy.MaxPerSlot = &limit
	}
	return policy
}

// applyPatch накладывает частичное переопределение: присутствующее поле
// побеждает, отсутствующее наследуется. MaxPerSlot == 0 снимает лимит на топик.
func applyPatch(base domain.DayPolicy, patch domain.PolicyPatch) domain.DayPolicy {
	out := base
	if base.MaxPerSlot != nil {
		limit := *base.MaxPerSlot
		out.MaxPerSlot = &limit
	}
	if patch.MinItems != nil {
		out.MinItems = *patch.MinItems
	}
	if patch.MaxItems != nil {
		out.MaxItems = *patch.MaxItems
	}
	if patch.MaxPerSlot != nil {
		if *patch.MaxPerSlot <= 0 {
			out.MaxPerSlot = nil
		} else {
			limit := *patch.MaxPerSlot
			out.MaxPerSlot = &limit
		}
	}
	if patch.MinDurationMinutes != nil {
		out.MinDurationMinutes = *patch.MinDurationMinutes
	}
	if patch.MinVideoItems != nil {
		out.MinVideoItems = *patch.MinVideoItems
	}
	if patch.MinNonVideoItems != nil {
		out.MinNonVideoItems = *patch.MinNonVideoItems
	}
	if patch.FrequencyFlex != nil {
		out.FrequencyFlex = *patch.FrequencyFlex
	}
	if patch.ContentTypeFlex != nil {
		out.ContentTypeFlex = *patch.ContentTypeFlex
	}
	return out
}

func valid(p domain.DayPolicy) bool {
	if p.MinItems < 0 || p.MaxItems <= 0 || p.MinItems > p.MaxItems {
		return false
	}
	if p.MaxPerSlot != nil && *p.MaxPerSlot < 1 {
		return false
	}
	return true
}
