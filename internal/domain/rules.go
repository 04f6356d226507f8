package domain

import "time"

// DayPolicy — квотная политика публикаций на конкретную дату.
// MaxPerSlot == nil означает отсутствие лимита на топик (тематические дни).
type DayPolicy struct {
	MinItems           int
	MaxItems           int
	MaxPerSlot         *int
	MinDurationMinutes int
	MinVideoItems      int
	MinNonVideoItems   int
	FrequencyFlex      bool
	ContentTypeFlex    bool
	ThemeDay           bool
	EventLabel         string
}

// SlotLimit возвращает лимит на топик и признак его наличия.
func (p DayPolicy) SlotLimit() (int, bool) {
	if p.MaxPerSlot == nil {
		return 0, false
	}
	return *p.MaxPerSlot, true
}

// PolicySpec — полная базовая политика из конфигурации правил.
type PolicySpec struct {
	MinItems           int
	MaxItems           int
	MaxPerSlot         *int
	MinDurationMinutes int
	MinVideoItems      int
	MinNonVideoItems   int
	FrequencyFlex      bool
	ContentTypeFlex    bool
}

// PolicyPatch — частичное переопределение политики тематическим днём.
// Отсутствующее поле наследует базовое значение; MaxPerSlot со значением 0
// означает снятие лимита на топик.
type PolicyPatch struct {
	MinItems           *int
	MaxItems           *int
	MaxPerSlot         *int
	MinDurationMinutes *int
	MinVideoItems      *int
	MinNonVideoItems   *int
	FrequencyFlex      *bool
	ContentTypeFlex    *bool
}

// ThemeDay — тематический день, привязанный к реальному событию.
// Дата попадает в день либо по явному списку, либо по диапазону From..To.
type ThemeDay struct {
	Label    string
	Dates    []time.Time
	From     *time.Time
	To       *time.Time
	Override PolicyPatch
}

// Matches сообщает, относится ли дата к тематическому дню.
func (t ThemeDay) Matches(date time.Time) bool {
	day := date.UTC().Truncate(24 * time.Hour)
	for _, d := range t.Dates {
		if d.UTC().Truncate(24 * time.Hour).Equal(day) {
			return true
		}
	}
	if t.From != nil && t.To != nil {
		from := t.From.UTC().Truncate(24 * time.Hour)
		to := t.To.UTC().Truncate(24 * time.Hour)
		return !day.Before(from) && !day.After(to)
	}
	return false
}

// Origin — отслеживаемый источник кандидатов с приоритетным весом.
type Origin struct {
	ID     string
	Weight float64
}

// DayRules — набор правил: базовая политика, тематические дни и
// справочники источников для скоринга кандидатов.
type DayRules struct {
	Default        PolicySpec
	ThemeDays      []ThemeDay
	Origins        []Origin
	NotablePersons []string
	TopicKeywords  []string
}

// OriginWeight возвращает вес источника; 0 — источник не отслеживается.
func (r DayRules) OriginWeight(originID string) float64 {
	for _, o := range r.Origins {
		if o.ID == originID {
			return o.Weight
		}
	}
	return 0
}

// RuleSource отдаёт актуальные правила и умеет перечитывать их без рестарта.
type RuleSource interface {
	Rules() (DayRules, error)
	Reload() error
}
