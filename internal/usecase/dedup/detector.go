package dedup

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"debate-daily/internal/domain"
)

// DefaultTitleThreshold — доля совпадения множеств символов, начиная
// с которой заголовки считаются дублями.
const DefaultTitleThreshold = 0.8

// DefaultTitleWindowDays — глубина истории заголовков для сравнения.
const DefaultTitleWindowDays = 60

// TitleSimilarity считает посимвольную (не токенную) меру Жаккара между
// заголовками: |A∩B| / |A∪B| по множествам рун без пробелов и пунктуации.
// Мера грубая для коротких и многоалфавитных заголовков; порог замены
// осознанно не подбирался и остаётся продуктовым решением.
func TitleSimilarity(a, b string) float64 {
	setA := runeSet(a)
	setB := runeSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		set[unicode.ToLower(r)] = struct{}{}
	}
	return set
}

// Detector проверяет черновик на повторную публикацию того же контента.
type Detector struct {
	entries    domain.EntryRepo
	windowDays int
	threshold  float64
}

// NewDetector создаёт детектор дублей.
func NewDetector(entries domain.EntryRepo, windowDays int, threshold float64) *Detector {
	if windowDays <= 0 {
		windowDays = DefaultTitleWindowDays
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultTitleThreshold
	}
	return &Detector{entries: entries, windowDays: windowDays, threshold: threshold}
}

// Check возвращает непустую причину, если черновик дублирует уже
// опубликованную заметку. Обе проверки выполняются до аллокации.
func (d *Detector) Check(ctx context.Context, date time.Time, draft domain.DraftEntry) (string, error) {
	if normalized := NormalizeURL(draft.SourceURL); normalized != "" {
		exists, err := d.entries.ExistsNormalizedURL(ctx, normalized)
		if err != nil {
			return "", fmt.Errorf("проверка URL: %w", err)
		}
		if exists {
			return fmt.Sprintf("URL уже публиковался: %s", normalized), nil
		}
	}

	// Окно истории ограничено с обеих сторон: при дозаполнении прошлой
	// даты более поздние публикации не участвуют в сравнении.
	since := date.AddDate(0, 0, -d.windowDays)
	titles, err := d.entries.ListTitlesBetween(ctx, since, date)
	if err != nil {
		return "", fmt.Errorf("история заголовков: %w", err)
	}
	for _, title := range titles {
		if sim := TitleSimilarity(draft.Title, title); sim >= d.threshold {
			return fmt.Sprintf("заголовок совпадает с %q на %.0f%%", title, sim*100), nil
		}
	}
	return "", nil
}
