package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"debate-daily/internal/domain"
	"debate-daily/internal/infra/metrics"
)

const dateLayout = "2006-01-02"

// YAMLSource читает правила квот из YAML-файла. Последняя успешно
// прочитанная версия сохраняется: неудачный Reload не затирает правила.
type YAMLSource struct {
	path string
	log  zerolog.Logger

	mu     sync.RWMutex
	rules  domain.DayRules
	loaded bool
}

var _ domain.RuleSource = (*YAMLSource)(nil)

// NewYAMLSource создаёт источник и сразу читает файл.
func NewYAMLSource(path string, logger zerolog.Logger) (*YAMLSource, error) {
	src := &YAMLSource{path: path, log: logger}
	if err := src.Reload(); err != nil {
		return src, err
	}
	return src, nil
}

// Rules возвращает последние успешно прочитанные правила.
func (s *YAMLSource) Rules() (domain.DayRules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return domain.DayRules{}, fmt.Errorf("rules: файл %s не был прочитан", s.path)
	}
	return s.rules, nil
}

// Reload перечитывает файл правил.
func (s *YAMLSource) Reload() error {
	parsed, err := loadFile(s.path)
	if err != nil {
		metrics.RulesReloadsTotal.WithLabelValues("error").Inc()
		return err
	}
	s.mu.Lock()
	s.rules = parsed
	s.loaded = true
	s.mu.Unlock()
	metrics.RulesReloadsTotal.WithLabelValues("success").Inc()
	return nil
}

// Watch перечитывает файл при изменении до отмены stop-канала.
func (s *YAMLSource) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rules: создание наблюдателя: %w", err)
	}
	// Наблюдаем каталог: редакторы заменяют файл через rename.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("rules: наблюдение каталога: %w", err)
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.log.Warn().Err(err).Msg("rules: перечитывание не удалось, действуют прежние правила")
					continue
				}
				s.log.Info().Str("path", s.path).Msg("rules: правила перечитаны")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("rules: ошибка наблюдателя")
			}
		}
	}()
	return nil
}

type fileSchema struct {
	Default   policySchema `yaml:"default"`
	ThemeDays []struct {
		Label    string      `yaml:"label"`
		Dates    []string    `yaml:"dates"`
		From     string      `yaml:"from"`
		To       string      `yaml:"to"`
		Override patchSchema `yaml:"override"`
	} `yaml:"theme_days"`
	Origins []struct {
		ID     string  `yaml:"id"`
		Weight float64 `yaml:"weight"`
	} `yaml:"origins"`
	NotablePersons []string `yaml:"notable_persons"`
	TopicKeywords  []string `yaml:"topic_keywords"`
}

type policySchema struct {
	MinItems           int  `yaml:"min_items"`
	MaxItems           int  `yaml:"max_items"`
	MaxPerSlot         *int `yaml:"max_per_slot"`
	MinDurationMinutes int  `yaml:"min_duration_minutes"`
	MinVideoItems      int  `yaml:"min_video_items"`
	MinNonVideoItems   int  `yaml:"min_nonvideo_items"`
	FrequencyFlex      bool `yaml:"frequency_flex"`
	ContentTypeFlex    bool `yaml:"content_type_flex"`
}

type patchSchema struct {
	MinItems           *int  `yaml:"min_items"`
	MaxItems           *int  `yaml:"max_items"`
	MaxPerSlot         *int  `yaml:"max_per_slot"`
	MinDurationMinutes *int  `yaml:"min_duration_minutes"`
	MinVideoItems      *int  `yaml:"min_video_items"`
	MinNonVideoItems   *int  `yaml:"min_nonvideo_items"`
	FrequencyFlex      *bool `yaml:"frequency_flex"`
	ContentTypeFlex    *bool `yaml:"content_type_flex"`
}

func loadFile(path string) (domain.DayRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DayRules{}, fmt.Errorf("rules: чтение %s: %w", path, err)
	}
	var schema fileSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return domain.DayRules{}, fmt.Errorf("rules: разбор %s: %w", path, err)
	}

	rules := domain.DayRules{
		Default: domain.PolicySpec{
			MinItems:           schema.Default.MinItems,
			MaxItems:           schema.Default.MaxItems,
			MaxPerSlot:         schema.Default.MaxPerSlot,
			MinDurationMinutes: schema.Default.MinDurationMinutes,
			MinVideoItems:      schema.Default.MinVideoItems,
			MinNonVideoItems:   schema.Default.MinNonVideoItems,
			FrequencyFlex:      schema.Default.FrequencyFlex,
			ContentTypeFlex:    schema.Default.ContentTypeFlex,
		},
		NotablePersons: schema.NotablePersons,
		TopicKeywords:  schema.TopicKeywords,
	}

	for _, theme := range schema.ThemeDays {
		day := domain.ThemeDay{
			Label: theme.Label,
			Override: domain.PolicyPatch{
				MinItems:           theme.Override.MinItems,
				MaxItems:           theme.Override.MaxItems,
				MaxPerSlot:         theme.Override.MaxPerSlot,
				MinDurationMinutes: theme.Override.MinDurationMinutes,
				MinVideoItems:      theme.Override.MinVideoItems,
				MinNonVideoItems:   theme.Override.MinNonVideoItems,
				FrequencyFlex:      theme.Override.FrequencyFlex,
				ContentTypeFlex:    theme.Override.ContentTypeFlex,
			},
		}
		for _, raw := range theme.Dates {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				return domain.DayRules{}, fmt.Errorf("rules: дата %q у %q: %w", raw, theme.Label, err)
			}
			day.Dates = append(day.Dates, parsed)
		}
		if theme.From != "" || theme.To != "" {
			from, err := time.Parse(dateLayout, theme.From)
			if err != nil {
				return domain.DayRules{}, fmt.Errorf("rules: начало диапазона у %q: %w", theme.Label, err)
			}
			to, err := time.Parse(dateLayout, theme.To)
			if err != nil {
				return domain.DayRules{}, fmt.Errorf("rules: конец диапазона у %q: %w", theme.Label, err)
			}
			day.From = &from
			day.To = &to
		}
		rules.ThemeDays = append(rules.ThemeDays, day)
	}

	for _, origin := range schema.Origins {
		rules.Origins = append(rules.Origins, domain.Origin{ID: origin.ID, Weight: origin.Weight})
	}
	return rules, nil
}
