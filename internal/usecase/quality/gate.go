package quality

import (
	"fmt"
	"strings"

	"debate-daily/internal/domain"
)

// Severity — уровень серьёзности проверки.
type Severity string

const (
	// SeverityBlock — провал проверки запрещает публикацию.
	SeverityBlock Severity = "BLOCK"
	// SeverityWarn — провал фиксируется, но публикацию не останавливает.
	SeverityWarn Severity = "WARN"
)

// Threshold — минимальная видимая длина текста для данной границы проверки.
type Threshold int

const (
	// ThresholdGeneration применяется к свежесинтезированным черновикам.
	// Запас над публикационным порогом оставляет место для последующих правок.
	ThresholdGeneration Threshold = 700
	// ThresholdPublish применяется на публикационной границе API.
	ThresholdPublish Threshold = 300
	// ThresholdAudit — каноничный межсервисный минимум для аудита.
	ThresholdAudit Threshold = 500
)

// Failure — провал одной именованной проверки.
type Failure struct {
	Check    string
	Severity Severity
	Reason   string
}

// Report — итог прохождения всех проверок.
type Report struct {
	Failures []Failure
}

// Blocked сообщает, провалена ли хотя бы одна блокирующая проверка.
func (r Report) Blocked() bool {
	for _, f := range r.Failures {
		if f.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// BlockReasons возвращает причины блокирующих провалов.
func (r Report) BlockReasons() []string {
	var out []string
	for _, f := range r.Failures {
		if f.Severity == SeverityBlock {
			out = append(out, fmt.Sprintf("%s: %s", f.Check, f.Reason))
		}
	}
	return out
}

// hedgePhrases — маркеры того, что синтез опирался на домыслы,
// а не на проверенный материал источника.
var hedgePhrases = []string{
	"inferred from metadata",
	"based on metadata alone",
	"could not verify",
	"unable to verify",
	"speculative reconstruction",
	"реконструировано по метаданным",
	"не удалось подтвердить источник",
}

func containsHedge(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range hedgePhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// VisibleLen — каноничная видимая длина: пробельные серии схлопываются
// в один пробел, края обрезаются. Так переносы и повторные пробелы
// не раздувают кажущуюся длину текста.
func VisibleLen(s string) int {
	return len([]rune(strings.Join(strings.Fields(s), " ")))
}

// Evaluate прогоняет черновик через именованные проверки.
func Evaluate(draft domain.DraftEntry, threshold Threshold) Report {
	var report Report

	fail := func(check string, severity Severity, format string, args ...any) {
		report.Failures = append(report.Failures, Failure{
			Check:    check,
			Severity: severity,
			Reason:   fmt.Sprintf(format, args...),
		})
	}

	// Подлинность: маркеры домысливания блокируют сразу.
	for field, text := range map[string]string{
		"body":   draft.BodyText,
		"author": draft.AuthorName,
		"bio":    draft.AuthorBio,
	} {
		if phrase, ok := containsHedge(text); ok {
			fail("authenticity", SeverityBlock, "поле %s содержит маркер домысливания %q", field, phrase)
		}
	}

	// Структурная полнота.
	if strings.TrimSpace(draft.Title) == "" {
		fail("structure", SeverityBlock, "пустой заголовок")
	}
	if strings.TrimSpace(draft.BodyText) == "" {
		fail("structure", SeverityBlock, "пустой текст")
	}
	if _, ok := domain.TopicByCode(draft.TopicCode); !ok {
		fail("structure", SeverityBlock, "неизвестный код топика %q", draft.TopicCode)
	}
	if draft.Stance != domain.StanceYes && draft.Stance != domain.StanceNo {
		fail("structure", SeverityBlock, "недопустимая позиция %q", draft.Stance)
	}

	// Видимая длина.
	if visible := VisibleLen(draft.BodyText); visible < int(threshold) {
		fail("length", SeverityBlock, "видимая длина %d меньше минимума %d", visible, int(threshold))
	}

	// Правдоподобие автора.
	if VisibleLen(draft.AuthorName) < 2 {
		fail("author", SeverityBlock, "имя автора короче 2 видимых символов")
	}

	// Рекомендательные проверки.
	if len(draft.Keywords) == 0 {
		fail("keywords", SeverityWarn, "нет ключевых слов")
	}
	if strings.TrimSpace(draft.SourceDescription) == "" {
		fail("source", SeverityWarn, "нет описания источника")
	}

	return report
}
