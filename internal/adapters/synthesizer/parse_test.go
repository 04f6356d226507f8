package synthesizer

import (
	"errors"
	"testing"

	"debate-daily/internal/domain"
)

const strictResponse = `{"entries": [{"topic_code": "EC1", "stance": "yes", "title": "Базовый доход", "author_name": "Мария Соколова", "body_text": "текст"}]}`

func TestParseDraftsStrict(t *testing.T) {
	drafts, err := parseDrafts(strictResponse)
	if err != nil {
		t.Fatalf("строгий JSON должен разбираться: %v", err)
	}
	if len(drafts) != 1 || drafts[0].TopicCode != "EC1" {
		t.Fatalf("неожиданный результат разбора: %+v", drafts)
	}
	if drafts[0].Stance != domain.StanceYes {
		t.Fatalf("позиция должна нормализоваться, получили %q", drafts[0].Stance)
	}
}

func TestParseDraftsEmptyEntries(t *testing.T) {
	drafts, err := parseDrafts(`{"entries": []}`)
	if err != nil {
		t.Fatalf("пустой список мнений — легальный ответ: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("ожидали пустой список, получили %+v", drafts)
	}
}

func TestParseDraftsCodeFence(t *testing.T) {
	fenced := "Вот ответ:\n```json\n" + strictResponse + "\n```\nНа этом всё."
	drafts, err := parseDrafts(fenced)
	if err != nil {
		t.Fatalf("ответ в кодовой ограде должен чиниться: %v", err)
	}
	if len(drafts) != 1 || drafts[0].TopicCode != "EC1" {
		t.Fatalf("неожиданный результат разбора: %+v", drafts)
	}
}

func TestParseDraftsSurroundingText(t *testing.T) {
	wrapped := "Конечно! " + strictResponse + " Надеюсь, помогло."
	drafts, err := parseDrafts(wrapped)
	if err != nil {
		t.Fatalf("текст вокруг объекта должен срезаться: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("ожидали один черновик, получили %d", len(drafts))
	}
}

func TestParseDraftsLenientSkipsBrokenItems(t *testing.T) {
	mixed := `{"entries": [{"topic_code": "EC1", "stance": "A", "title": "t", "body_text": "b"}, "мусор", 42]}`
	drafts, err := parseDrafts(mixed)
	if err != nil {
		t.Fatalf("битые элементы должны пропускаться: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("ожидали один уцелевший черновик, получили %d", len(drafts))
	}
	if drafts[0].Stance != domain.StanceYes {
		t.Fatalf("историческая позиция A должна нормализоваться в yes")
	}
}

func TestParseDraftsUnparsable(t *testing.T) {
	for _, content := range []string{"", "просто текст без JSON", "{нет закрывающей"} {
		if _, err := parseDrafts(content); !errors.Is(err, errUnparsable) {
			t.Fatalf("ввод %q должен давать errUnparsable, получили %v", content, err)
		}
	}
}

func TestConvertTrimsFields(t *testing.T) {
	drafts := convert([]draftPayload{{
		TopicCode: "  EC1 ",
		Stance:    " B ",
		Title:     " заголовок ",
		Keywords:  []string{" одно ", "", "  "},
	}})
	if drafts[0].TopicCode != "EC1" || drafts[0].Title != "заголовок" {
		t.Fatalf("поля должны обрезаться: %+v", drafts[0])
	}
	if drafts[0].Stance != domain.StanceNo {
		t.Fatalf("позиция B должна нормализоваться в no")
	}
	if len(drafts[0].Keywords) != 1 || drafts[0].Keywords[0] != "одно" {
		t.Fatalf("пустые ключевые слова должны отбрасываться: %v", drafts[0].Keywords)
	}
}
