package generation

import (
	"testing"

	"debate-daily/internal/domain"
)

func intPtr(v int) *int { return &v }

func ordinaryPolicy() domain.DayPolicy {
	return domain.DayPolicy{
		MinItems:           6,
		MaxItems:           8,
		MaxPerSlot:         intPtr(1),
		MinDurationMinutes: 40,
		MinVideoItems:      2,
		MinNonVideoItems:   2,
	}
}

func entry(code, sourceURL string) domain.PublishedEntry {
	return domain.PublishedEntry{TopicCode: code, SourceURL: sourceURL}
}

func TestComputeGapEmptyDay(t *testing.T) {
	gap := ComputeGap(ordinaryPolicy(), nil)
	if gap.CurrentCount != 0 || gap.TotalGap != 6 {
		t.Fatalf("пустой день: ожидали дефицит 6, получили %+v", gap)
	}
	if gap.VideoGap != 2 || gap.NonVideoGap != 2 {
		t.Fatalf("типовые дефициты должны равняться минимумам: %+v", gap)
	}
	if !gap.NeedsMore {
		t.Fatalf("пустой день требует публикаций")
	}
	if len(gap.MissingCoreSlots) != 6 {
		t.Fatalf("все представительские слоты свободны, получили %v", gap.MissingCoreSlots)
	}
	if len(gap.AvailableSlots) != 12 {
		t.Fatalf("все слоты доступны, получили %d", len(gap.AvailableSlots))
	}
}

func TestComputeGapCountsVideo(t *testing.T) {
	entries := []domain.PublishedEntry{
		entry("PO1", "https://youtube.com/watch?v=a"),
		entry("EC1", "https://example.com/article"),
	}
	gap := ComputeGap(ordinaryPolicy(), entries)
	if gap.CurrentCount != 2 || gap.TotalGap != 4 {
		t.Fatalf("ожидали дефицит 4, получили %+v", gap)
	}
	if gap.VideoGap != 1 || gap.NonVideoGap != 1 {
		t.Fatalf("по одному видео и статье: остаток по типам должен быть 1 и 1, получили %+v", gap)
	}
}

func TestComputeGapSlotLimit(t *testing.T) {
	gap := ComputeGap(ordinaryPolicy(), []domain.PublishedEntry{entry("PO1", "")})
	for _, code := range gap.AvailableSlots {
		if code == "PO1" {
			t.Fatalf("занятый слот не должен быть доступен")
		}
	}
	if len(gap.AvailableSlots) != 11 {
		t.Fatalf("ожидали одиннадцать свободных слотов, получили %d", len(gap.AvailableSlots))
	}
	for _, code := range gap.MissingCoreSlots {
		if code == "PO1" {
			t.Fatalf("занятый представительский слот не должен числиться недостающим")
		}
	}
}

func TestComputeGapFlexFlags(t *testing.T) {
	policy := ordinaryPolicy()
	policy.ContentTypeFlex = true
	policy.FrequencyFlex = true
	policy.MaxPerSlot = nil
	gap := ComputeGap(policy, []domain.PublishedEntry{entry("PO1", ""), entry("PO1", "")})
	if gap.VideoGap != 0 || gap.NonVideoGap != 0 {
		t.Fatalf("гибкий тип контента обнуляет типовые дефициты: %+v", gap)
	}
	if len(gap.MissingCoreSlots) != 0 {
		t.Fatalf("гибкая частота отключает требование представительских слотов: %v", gap.MissingCoreSlots)
	}
	if len(gap.AvailableSlots) != 12 {
		t.Fatalf("без лимита на слот все слоты остаются доступны, получили %d", len(gap.AvailableSlots))
	}
}

func TestComputeGapSatisfiedDay(t *testing.T) {
	entries := []domain.PublishedEntry{
		entry("PO1", "https://youtube.com/watch?v=a"),
		entry("EC1", "https://youtu.be/b"),
		entry("SO1", ""),
		entry("TE1", ""),
		entry("CU1", ""),
		entry("EN1", ""),
	}
	gap := ComputeGap(ordinaryPolicy(), entries)
	if gap.NeedsMore || gap.TotalGap != 0 {
		t.Fatalf("укомплектованный день не требует публикаций: %+v", gap)
	}
	if len(gap.MissingCoreSlots) != 0 {
		t.Fatalf("все представительские слоты заняты, получили %v", gap.MissingCoreSlots)
	}
}
