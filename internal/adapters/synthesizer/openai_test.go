package synthesizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"debate-daily/internal/domain"
	openai "debate-daily/internal/infra/openai"
)

type fakeChat struct {
	responses []string
	errs      []error
	calls     int
	lastReq   openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return openai.ChatCompletionResponse{}, f.errs[idx]
	}
	content := ""
	if idx < len(f.responses) {
		content = f.responses[idx]
	} else if len(f.responses) > 0 {
		content = f.responses[len(f.responses)-1]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Content: content}}},
	}, nil
}

func testCandidate() domain.CandidateUnit {
	return domain.CandidateUnit{
		ID:          7,
		Kind:        domain.KindVideo,
		Title:       "Лекция о базовом доходе",
		OriginID:    "editorial",
		SourceURL:   "https://youtube.com/watch?v=abc",
		PublishedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSynthesizeSuccess(t *testing.T) {
	chat := &fakeChat{responses: []string{`{"entries": [{"topic_code": "EC1", "stance": "yes", "title": "t", "body_text": "b"}]}`}}
	s := NewOpenAI(chat, "gpt-4.1-mini", time.Minute)
	drafts, err := s.Synthesize(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("ожидали один черновик, получили %d", len(drafts))
	}
	if drafts[0].SourceURL != "https://youtube.com/watch?v=abc" {
		t.Fatalf("пустой source_url должен заполняться ссылкой кандидата, получили %q", drafts[0].SourceURL)
	}
	if chat.lastReq.ResponseFormat == nil || chat.lastReq.ResponseFormat.Type != openai.ResponseFormatTypeJSONObject {
		t.Fatalf("запрос должен требовать JSON-ответ")
	}
}

func TestSynthesizeRetriesTransport(t *testing.T) {
	chat := &fakeChat{
		errs:      []error{errors.New("timeout"), errors.New("timeout"), nil},
		responses: []string{"", "", `{"entries": []}`},
	}
	s := NewOpenAI(chat, "", time.Minute)
	drafts, err := s.Synthesize(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("транспортные сбои должны повторяться: %v", err)
	}
	if chat.calls != transportRetryMax {
		t.Fatalf("ожидали %d попыток, получили %d", transportRetryMax, chat.calls)
	}
	if len(drafts) != 0 {
		t.Fatalf("пустой список мнений — легальный результат")
	}
}

func TestSynthesizeGivesUpAfterRetries(t *testing.T) {
	chat := &fakeChat{errs: []error{errors.New("down"), errors.New("down"), errors.New("down")}}
	s := NewOpenAI(chat, "", time.Minute)
	if _, err := s.Synthesize(context.Background(), testCandidate()); err == nil {
		t.Fatalf("после исчерпания повторов ожидали ошибку")
	}
	if chat.calls != transportRetryMax {
		t.Fatalf("ожидали ровно %d попыток, получили %d", transportRetryMax, chat.calls)
	}
}

func TestSynthesizeUnparsableResponse(t *testing.T) {
	chat := &fakeChat{responses: []string{"извините, не могу помочь"}}
	s := NewOpenAI(chat, "", time.Minute)
	if _, err := s.Synthesize(context.Background(), testCandidate()); err == nil {
		t.Fatalf("неразборный ответ должен быть ошибкой синтеза")
	}
}
