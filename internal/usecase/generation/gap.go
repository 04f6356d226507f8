package generation

import (
	"debate-daily/internal/domain"
	"debate-daily/internal/usecase/dedup"
)

// ComputeGap считает дефицит публикаций на дату. Результат не кэшируется:
// состав публикаций может меняться между вызовами внутри одного запуска.
func ComputeGap(policy domain.DayPolicy, entries []domain.PublishedEntry) domain.Gap {
	gap := domain.Gap{
		CurrentCount: len(entries),
		UsedSlots:    make(map[string]int),
	}

	videoCount := 0
	for _, entry := range entries {
		gap.UsedSlots[entry.TopicCode]++
		if dedup.IsVideoURL(entry.SourceURL) {
			videoCount++
		}
	}
	nonVideoCount := gap.CurrentCount - videoCount

	gap.TotalGap = maxInt(0, policy.MinItems-gap.CurrentCount)
	if !policy.ContentTypeFlex {
		gap.VideoGap = maxInt(0, policy.MinVideoItems-videoCount)
		gap.NonVideoGap = maxInt(0, policy.MinNonVideoItems-nonVideoCount)
	}
	gap.NeedsMore = gap.CurrentCount < policy.MinItems

	if !policy.FrequencyFlex {
		for _, code := range domain.CoreTopicCodes() {
			if gap.UsedSlots[code] == 0 {
				gap.MissingCoreSlots = append(gap.MissingCoreSlots, code)
			}
		}
	}

	limit, limited := policy.SlotLimit()
	for _, slot := range domain.AllTopicSlots() {
		if limited && gap.UsedSlots[slot.Code] >= limit {
			continue
		}
		gap.AvailableSlots = append(gap.AvailableSlots, slot.Code)
	}

	return gap
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
