package synthesizer

import (
	"encoding/json"
	"errors"
	"strings"

	"debate-daily/internal/domain"
)

// errUnparsable возвращается, когда все стадии разбора ответа исчерпаны.
var errUnparsable = errors.New("ответ модели не разобран ни одной стадией")

type draftPayload struct {
	TopicCode         string   `json:"topic_code"`
	Stance            string   `json:"stance"`
	Title             string   `json:"title"`
	AuthorName        string   `json:"author_name"`
	AuthorBio         string   `json:"author_bio"`
	SourceDescription string   `json:"source_description"`
	SourceURL         string   `json:"source_url"`
	BodyText          string   `json:"body_text"`
	Keywords          []string `json:"keywords"`
}

type responsePayload struct {
	Entries []draftPayload `json:"entries"`
}

type lenientResponse struct {
	Entries []json.RawMessage `json:"entries"`
}

// parseDrafts разбирает ответ модели в несколько стадий: строгий разбор,
// починка обёртки, поэлементное извлечение. Модель ненадёжна, ответ
// считается недоверенным до последней стадии.
func parseDrafts(content string) ([]domain.DraftEntry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errUnparsable
	}

	// Стадия 1: строгий разбор.
	var strict responsePayload
	if err := json.Unmarshal([]byte(content), &strict); err == nil && strict.Entries != nil {
		return convert(strict.Entries), nil
	}

	// Стадия 2: починка — срезать кодовые ограды и текст вокруг объекта.
	repaired := repairJSON(content)
	if repaired != "" {
		if err := json.Unmarshal([]byte(repaired), &strict); err == nil && strict.Entries != nil {
			return convert(strict.Entries), nil
		}
	}

	// Стадия 3: поэлементное извлечение — битые элементы пропускаются.
	for _, body := range []string{content, repaired} {
		if body == "" {
			continue
		}
		var lenient lenientResponse
		if err := json.Unmarshal([]byte(body), &lenient); err != nil {
			continue
		}
		var items []draftPayload
		for _, raw := range lenient.Entries {
			var item draftPayload
			if err := json.Unmarshal(raw, &item); err != nil {
				continue
			}
			items = append(items, item)
		}
		if len(items) > 0 {
			return convert(items), nil
		}
	}

	return nil, errUnparsable
}

// repairJSON вырезает полезный объект из ответа с кодовыми оградами
// или пояснительным текстом вокруг JSON.
func repairJSON(content string) string {
	cleaned := content
	if idx := strings.Index(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[idx+3:]
		cleaned = strings.TrimPrefix(cleaned, "json")
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(cleaned[start : end+1])
}

func convert(items []draftPayload) []domain.DraftEntry {
	out := make([]domain.DraftEntry, 0, len(items))
	for _, item := range items {
		draft := domain.DraftEntry{
			TopicCode:         strings.TrimSpace(item.TopicCode),
			Title:             strings.TrimSpace(item.Title),
			AuthorName:        strings.TrimSpace(item.AuthorName),
			AuthorBio:         strings.TrimSpace(item.AuthorBio),
			SourceDescription: strings.TrimSpace(item.SourceDescription),
			SourceURL:         strings.TrimSpace(item.SourceURL),
			BodyText:          strings.TrimSpace(item.BodyText),
			Keywords:          filterNonEmpty(item.Keywords),
		}
		if stance, ok := domain.NormalizeStance(item.Stance); ok {
			draft.Stance = stance
		} else {
			draft.Stance = domain.Stance(strings.TrimSpace(item.Stance))
		}
		out = append(out, draft)
	}
	return out
}

func filterNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
