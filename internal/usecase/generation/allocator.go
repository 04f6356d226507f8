package generation

import (
	"context"
	"fmt"
	"time"

	"debate-daily/internal/domain"
	"debate-daily/internal/usecase/dedup"
)

// Allocator публикует проверенный черновик, расходуя слот топика.
// Конфликт уникальности при вставке считается безобидным пропуском:
// повторная подача той же заметки не ломает запуск.
type Allocator struct {
	entries domain.EntryRepo
}

// NewAllocator создаёт аллокатор.
func NewAllocator(entries domain.EntryRepo) *Allocator {
	return &Allocator{entries: entries}
}

// Allocate пытается опубликовать черновик на дату. Возвращает признак
// успеха и причину пропуска, если публикация не состоялась.
func (a *Allocator) Allocate(ctx context.Context, date time.Time, policy domain.DayPolicy, gap domain.Gap, draft domain.DraftEntry) (bool, string, error) {
	if gap.CurrentCount >= policy.MaxItems {
		return false, fmt.Sprintf("дневной лимит %d исчерпан", policy.MaxItems), nil
	}

	used := gap.UsedSlots[draft.TopicCode]
	if limit, limited := policy.SlotLimit(); limited && used >= limit {
		return false, fmt.Sprintf("слот %s занят (%d из %d)", draft.TopicCode, used, limit), nil
	}

	entry := domain.PublishedEntry{
		Date:              date,
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
	}

	inserted, err := a.entries.Insert(ctx, entry, used+1)
	if err != nil {
		return false, "", fmt.Errorf("вставка заметки: %w", err)
	}
	if !inserted {
		return false, fmt.Sprintf("конфликт уникальности по слоту %s или URL", draft.TopicCode), nil
	}
	return true, "", nil
}
