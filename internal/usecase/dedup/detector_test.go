package dedup

import (
	"context"
	"testing"
	"time"

	"debate-daily/internal/domain"
)

type stubEntries struct {
	existingURL string
	titles      []string
	from        time.Time
	to          time.Time
}

func (s *stubEntries) ListByDate(context.Context, time.Time) ([]domain.PublishedEntry, error) {
	return nil, nil
}
func (s *stubEntries) Insert(context.Context, domain.PublishedEntry, int) (bool, error) {
	return true, nil
}
func (s *stubEntries) ExistsNormalizedURL(_ context.Context, normalized string) (bool, error) {
	return normalized == s.existingURL, nil
}
func (s *stubEntries) ListTitlesBetween(_ context.Context, from, to time.Time) ([]string, error) {
	s.from = from
	s.to = to
	return s.titles, nil
}

func TestTitleSimilarity(t *testing.T) {
	if sim := TitleSimilarity("Базовый доход", "Базовый доход"); sim != 1 {
		t.Fatalf("одинаковые заголовки должны давать 1, получили %f", sim)
	}
	if sim := TitleSimilarity("абв", "где"); sim != 0 {
		t.Fatalf("непересекающиеся заголовки должны давать 0, получили %f", sim)
	}
	if sim := TitleSimilarity("", "что-то"); sim != 0 {
		t.Fatalf("пустой заголовок даёт 0, получили %f", sim)
	}
	// Пунктуация и регистр не влияют на меру.
	if sim := TitleSimilarity("Доход: базовый!", "базовый доход"); sim != 1 {
		t.Fatalf("пунктуация и регистр не должны влиять, получили %f", sim)
	}
}

func TestDetectorURLDuplicate(t *testing.T) {
	entries := &stubEntries{existingURL: NormalizeURL("https://example.com/talk")}
	detector := NewDetector(entries, DefaultTitleWindowDays, DefaultTitleThreshold)
	draft := domain.DraftEntry{Title: "Новая заметка", SourceURL: "http://www.example.com/talk/?utm_source=feed"}
	reason, err := detector.Check(context.Background(), time.Now(), draft)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if reason == "" {
		t.Fatalf("нормализованный URL обязан находить дубль")
	}
}

func TestDetectorTitleDuplicate(t *testing.T) {
	entries := &stubEntries{titles: []string{"Базовый доход: аргументы за"}}
	detector := NewDetector(entries, DefaultTitleWindowDays, DefaultTitleThreshold)
	draft := domain.DraftEntry{Title: "Базовый доход, аргументы за!", SourceURL: "https://example.com/new"}
	reason, err := detector.Check(context.Background(), time.Now(), draft)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if reason == "" {
		t.Fatalf("похожий заголовок обязан находить дубль")
	}
}

func TestDetectorWindow(t *testing.T) {
	entries := &stubEntries{}
	detector := NewDetector(entries, 60, DefaultTitleThreshold)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if _, err := detector.Check(context.Background(), date, domain.DraftEntry{Title: "x", SourceURL: "https://example.com/x"}); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	wantFrom := date.AddDate(0, 0, -60)
	if !entries.from.Equal(wantFrom) {
		t.Fatalf("история заголовков должна запрашиваться с %s, запросили с %s", wantFrom, entries.from)
	}
	if !entries.to.Equal(date) {
		t.Fatalf("история заголовков должна обрываться на %s, запросили до %s", date, entries.to)
	}
}

func TestDetectorClean(t *testing.T) {
	entries := &stubEntries{titles: []string{"Итоги футбольного сезона"}}
	detector := NewDetector(entries, DefaultTitleWindowDays, DefaultTitleThreshold)
	draft := domain.DraftEntry{Title: "Как выбрать велосипед", SourceURL: "https://example.com/fresh"}
	reason, err := detector.Check(context.Background(), time.Now(), draft)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if reason != "" {
		t.Fatalf("чистый черновик не должен помечаться дублем: %s", reason)
	}
}
