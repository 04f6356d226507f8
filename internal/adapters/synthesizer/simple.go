package synthesizer

import (
	"context"
	"fmt"
	"strings"

	"debate-daily/internal/domain"
	"debate-daily/internal/usecase/quality"
)

// Simple — детерминированный синтезатор для разработки и тестов:
// строит одно мнение по описанию кандидата без внешних вызовов.
type Simple struct{}

var _ domain.Synthesizer = (*Simple)(nil)

// NewSimple создаёт синтезатор-заглушку.
func NewSimple() *Simple {
	return &Simple{}
}

// Synthesize строит черновик из метаданных кандидата.
func (s *Simple) Synthesize(_ context.Context, candidate domain.CandidateUnit) ([]domain.DraftEntry, error) {
	if strings.TrimSpace(candidate.Description) == "" {
		return nil, nil
	}
	slot := pickSlot(candidate)

	body := strings.TrimSpace(candidate.Description)
	for quality.VisibleLen(body) < int(quality.ThresholdGeneration) {
		body += " " + strings.TrimSpace(candidate.Description)
	}

	return []domain.DraftEntry{{
		TopicCode:         slot.Code,
		Stance:            domain.StanceYes,
		Title:             candidate.Title,
		AuthorName:        "Редакция",
		AuthorBio:         "Черновик без участия модели",
		SourceDescription: fmt.Sprintf("%s, источник %s", candidate.Kind, candidate.OriginID),
		SourceURL:         candidate.SourceURL,
		BodyText:          body,
		Keywords:          []string{string(slot.Domain)},
	}}, nil
}

// pickSlot подбирает топик по ключевым словам области в тексте кандидата,
// иначе берёт первый представительский слот.
func pickSlot(candidate domain.CandidateUnit) domain.TopicSlot {
	haystack := strings.ToLower(candidate.Title + " " + candidate.Description)
	for _, slot := range domain.AllTopicSlots() {
		if strings.Contains(haystack, string(slot.Domain)) {
			return slot
		}
	}
	slots := domain.AllTopicSlots()
	return slots[0]
}
