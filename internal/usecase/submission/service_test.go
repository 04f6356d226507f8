package submission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"debate-daily/internal/domain"
	"debate-daily/internal/usecase/dedup"
	"debate-daily/internal/usecase/policy"
)

type stubRules struct {
	rules domain.DayRules
}

func (s *stubRules) Rules() (domain.DayRules, error) { return s.rules, nil }
func (s *stubRules) Reload() error                   { return nil }

type fakeEntries struct {
	entries []domain.PublishedEntry
	urls    map[string]bool
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{urls: map[string]bool{}}
}

func (f *fakeEntries) ListByDate(context.Context, time.Time) ([]domain.PublishedEntry, error) {
	return f.entries, nil
}
func (f *fakeEntries) Insert(_ context.Context, entry domain.PublishedEntry, _ int) (bool, error) {
	if entry.NormalizedURL != "" && f.urls[entry.NormalizedURL] {
		return false, nil
	}
	f.entries = append(f.entries, entry)
	if entry.NormalizedURL != "" {
		f.urls[entry.NormalizedURL] = true
	}
	return true, nil
}
func (f *fakeEntries) ExistsNormalizedURL(_ context.Context, normalized string) (bool, error) {
	return f.urls[normalized], nil
}
func (f *fakeEntries) ListTitlesBetween(context.Context, time.Time, time.Time) ([]string, error) {
	var titles []string
	for _, e := range f.entries {
		titles = append(titles, e.Title)
	}
	return titles, nil
}

func intPtr(v int) *int { return &v }

func newTestService(entries *fakeEntries) *Service {
	src := &stubRules{rules: domain.DayRules{
		Default: domain.PolicySpec{MinItems: 1, MaxItems: 2, MaxPerSlot: intPtr(1)},
	}}
	resolver := policy.NewResolver(src, zerolog.Nop())
	detector := dedup.NewDetector(entries, dedup.DefaultTitleWindowDays, dedup.DefaultTitleThreshold)
	return NewService(resolver, entries, detector, zerolog.Nop())
}

func submittable() domain.DraftEntry {
	return domain.DraftEntry{
		TopicCode:  "EC1",
		Stance:     "A",
		Title:      "Базовый доход: эксперимент удался",
		AuthorName: "Мария Соколова",
		AuthorBio:  "Экономист",
		SourceURL:  "https://example.com/ubi",
		BodyText:   strings.Repeat("а", 300),
		Keywords:   []string{"экономика"},
	}
}

func TestSubmitSuccess(t *testing.T) {
	entries := newFakeEntries()
	service := newTestService(entries)
	published, err := service.Submit(context.Background(), time.Now(), submittable())
	if err != nil {
		t.Fatalf("ожидали успешную публикацию: %v", err)
	}
	if published.Stance != domain.StanceYes {
		t.Fatalf("историческая позиция A должна нормализоваться в yes, получили %q", published.Stance)
	}
	if published.NormalizedURL != dedup.NormalizeURL("https://example.com/ubi") {
		t.Fatalf("в ответе должен быть нормализованный URL")
	}
	if len(entries.entries) != 1 {
		t.Fatalf("заметка должна быть вставлена")
	}
}

func TestSubmitQualityBlocked(t *testing.T) {
	service := newTestService(newFakeEntries())
	draft := submittable()
	draft.BodyText = strings.Repeat("а", 299)
	_, err := service.Submit(context.Background(), time.Now(), draft)
	if !errors.Is(err, ErrQualityBlocked) {
		t.Fatalf("короткий текст должен блокироваться контролем качества, получили %v", err)
	}
}

func TestSubmitDuplicateURL(t *testing.T) {
	entries := newFakeEntries()
	entries.urls[dedup.NormalizeURL("https://example.com/ubi")] = true
	service := newTestService(entries)
	_, err := service.Submit(context.Background(), time.Now(), submittable())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("повтор URL должен отклоняться, получили %v", err)
	}
}

func TestSubmitNoCapacity(t *testing.T) {
	entries := newFakeEntries()
	entries.entries = []domain.PublishedEntry{
		{TopicCode: "PO1", Title: "Сроки депутатов пора ограничить"},
		{TopicCode: "SO1", Title: "Четырёхдневка выходит в норму"},
	}
	service := newTestService(entries)
	_, err := service.Submit(context.Background(), time.Now(), submittable())
	if !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("заполненный день должен отклонять подачу, получили %v", err)
	}
}

func TestSubmitSlotTaken(t *testing.T) {
	entries := newFakeEntries()
	entries.entries = []domain.PublishedEntry{{TopicCode: "EC1", Title: "Совсем другой материал"}}
	service := newTestService(entries)
	_, err := service.Submit(context.Background(), time.Now(), submittable())
	if !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("занятый слот должен отклонять подачу, получили %v", err)
	}
}
