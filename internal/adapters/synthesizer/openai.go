package synthesizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"debate-daily/internal/domain"
	openai "debate-daily/internal/infra/openai"
	"debate-daily/internal/usecase/quality"
)

const transportRetryMax = 3

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI превращает кандидата в черновики заметок через Chat Completions.
// Транспортные сбои повторяются с экспоненциальной задержкой; это повторы
// транспортного уровня, отдельные от решения цикла перейти к следующему
// кандидату.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
}

var _ domain.Synthesizer = (*OpenAI)(nil)

// NewOpenAI создаёт провайдер синтеза.
func NewOpenAI(client chatClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

// Synthesize строит черновики по кандидату. Пустой список — легальный
// результат "подходящего контента не нашлось".
func (s *OpenAI) Synthesize(ctx context.Context, candidate domain.CandidateUnit) ([]domain.DraftEntry, error) {
	topics := make([]string, 0, len(domain.AllTopicSlots()))
	for _, slot := range domain.AllTopicSlots() {
		topics = append(topics, fmt.Sprintf("%s (%s): %s", slot.Code, slot.Domain, slot.CoreQuestion))
	}

	userPrompt := fmt.Sprintf(`Проанализируй материал и подготовь до двух мнений по дебатным топикам.
Каждое мнение привязывай к коду топика из списка и позиции "yes" или "no".
Текст мнения пиши не короче %d видимых символов, опираясь только на сам материал.
Если материал не даёт основания ни для одного мнения, верни {"entries": []}.
Ответ строго в формате JSON:
{"entries": [{"topic_code": "...", "stance": "yes", "title": "...", "author_name": "...", "author_bio": "...", "source_description": "...", "source_url": "...", "body_text": "...", "keywords": ["..."]}]}

Топики:
%s

Материал (%s, источник %s, опубликован %s):
Заголовок: %s
Описание: %s
Ссылка: %s`,
		int(quality.ThresholdGeneration),
		strings.Join(topics, "\n"),
		candidate.Kind,
		candidate.OriginID,
		candidate.PublishedAt.Format("2006-01-02"),
		candidate.Title,
		clipRunes(candidate.Description, 4000),
		candidate.SourceURL,
	)

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.3,
		Messages: []openai.ChatMessage{
			{
				Role:    openai.RoleSystem,
				Content: "Ты редактор дебатной рубрики. Пиши только то, что подтверждается материалом, и не выдумывай авторов и фактов.",
			},
			{
				Role:    openai.RoleUser,
				Content: userPrompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	var resp openai.ChatCompletionResponse
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		var err error
		resp, err = s.client.CreateChatCompletion(callCtx, req)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), transportRetryMax-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: пустой ответ")
	}

	drafts, err := parseDrafts(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("распаковка ответа LLM: %w", err)
	}
	for i := range drafts {
		if drafts[i].SourceURL == "" {
			drafts[i].SourceURL = candidate.SourceURL
		}
	}
	return drafts, nil
}

func clipRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
