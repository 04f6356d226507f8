package config

import (
	"testing"

	"github.com/kelseyhightower/envconfig"
)

func TestGenerationDefaults(t *testing.T) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		t.Fatalf("обработка окружения: %v", err)
	}
	if cfg.Generation.MaxConsecutiveFailures != 5 {
		t.Fatalf("порог предохранителя по умолчанию равен 5, получили %d", cfg.Generation.MaxConsecutiveFailures)
	}
	if cfg.Generation.SynthesisBudget != 12 {
		t.Fatalf("бюджет синтеза по умолчанию равен 12, получили %d", cfg.Generation.SynthesisBudget)
	}
	if cfg.Generation.TitleWindowDays != 60 {
		t.Fatalf("окно дублей по умолчанию равно 60 дням, получили %d", cfg.Generation.TitleWindowDays)
	}
}

func TestGenerationOverrides(t *testing.T) {
	t.Setenv("MAX_CONSECUTIVE_FAILURES", "3")
	t.Setenv("SYNTHESIS_BUDGET", "20")

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		t.Fatalf("обработка окружения: %v", err)
	}
	if cfg.Generation.MaxConsecutiveFailures != 3 {
		t.Fatalf("переменная окружения должна переопределять порог, получили %d", cfg.Generation.MaxConsecutiveFailures)
	}
	if cfg.Generation.SynthesisBudget != 20 {
		t.Fatalf("переменная окружения должна переопределять бюджет, получили %d", cfg.Generation.SynthesisBudget)
	}
}
