package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const sampleRules = `
default:
  min_items: 6
  max_items: 8
  max_per_slot: 1
  min_duration_minutes: 40
  min_video_items: 2
  min_nonvideo_items: 2
theme_days:
  - label: "День экологии"
    dates: ["2026-06-05"]
    override:
      max_items: 10
      max_per_slot: 0
  - label: "Неделя технологий"
    from: "2026-11-09"
    to: "2026-11-13"
    override:
      content_type_flex: true
origins:
  - id: editorial
    weight: 1.0
notable_persons:
  - "Мария Соколова"
topic_keywords:
  - "инфляция"
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "day_rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("не удалось записать файл правил: %v", err)
	}
	return path
}

func TestYAMLSourceLoad(t *testing.T) {
	src, err := NewYAMLSource(writeRules(t, sampleRules), zerolog.Nop())
	if err != nil {
		t.Fatalf("корректный файл должен читаться: %v", err)
	}
	rules, err := src.Rules()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if rules.Default.MinItems != 6 || rules.Default.MaxItems != 8 {
		t.Fatalf("базовая политика прочитана неверно: %+v", rules.Default)
	}
	if rules.Default.MaxPerSlot == nil || *rules.Default.MaxPerSlot != 1 {
		t.Fatalf("лимит слота прочитан неверно")
	}
	if len(rules.ThemeDays) != 2 {
		t.Fatalf("ожидали два тематических дня, получили %d", len(rules.ThemeDays))
	}
	if !rules.ThemeDays[0].Matches(time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("дата из списка должна попадать в тематический день")
	}
	if !rules.ThemeDays[1].Matches(time.Date(2026, 11, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("дата из диапазона должна попадать в тематический день")
	}
	if rules.OriginWeight("editorial") != 1.0 {
		t.Fatalf("вес источника прочитан неверно")
	}
	if len(rules.NotablePersons) != 1 || len(rules.TopicKeywords) != 1 {
		t.Fatalf("справочники прочитаны неверно")
	}
}

func TestYAMLSourceMissingFile(t *testing.T) {
	src, err := NewYAMLSource(filepath.Join(t.TempDir(), "нет.yaml"), zerolog.Nop())
	if err == nil {
		t.Fatalf("отсутствующий файл должен возвращать ошибку")
	}
	if _, err := src.Rules(); err == nil {
		t.Fatalf("без единого успешного чтения правил быть не должно")
	}
}

func TestYAMLSourceBadDate(t *testing.T) {
	bad := `
default:
  min_items: 1
  max_items: 2
theme_days:
  - label: "Сломанный"
    dates: ["05.06.2026"]
`
	if _, err := NewYAMLSource(writeRules(t, bad), zerolog.Nop()); err == nil {
		t.Fatalf("некорректная дата должна быть ошибкой чтения")
	}
}

func TestYAMLSourceReloadKeepsLastGood(t *testing.T) {
	path := writeRules(t, sampleRules)
	src, err := NewYAMLSource(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("первое чтение: %v", err)
	}

	if err := os.WriteFile(path, []byte("{битый yaml"), 0o644); err != nil {
		t.Fatalf("не удалось испортить файл: %v", err)
	}
	if err := src.Reload(); err == nil {
		t.Fatalf("перечитывание битого файла должно возвращать ошибку")
	}

	rules, err := src.Rules()
	if err != nil {
		t.Fatalf("последние корректные правила должны сохраняться: %v", err)
	}
	if rules.Default.MinItems != 6 {
		t.Fatalf("после неудачного перечитывания действуют старые правила, получили %+v", rules.Default)
	}
}
