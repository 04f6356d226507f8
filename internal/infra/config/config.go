package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"UTC"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	AMQPURL   string `envconfig:"AMQP_URL"`

	RulesPath  string `envconfig:"DAY_RULES_PATH" default:"configs/day_rules.yaml"`
	RulesWatch bool   `envconfig:"DAY_RULES_WATCH" default:"true"`

	OpenAI struct {
		APIKey  string `envconfig:"OPENAI_API_KEY"`
		BaseURL string `envconfig:"OPENAI_BASE_URL"`
		Model   string `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
		Timeout int    `envconfig:"OPENAI_TIMEOUT_SECONDS" default:"90"`
	} `envconfig:""`

	Generation struct {
		SynthesisBudget        int    `envconfig:"SYNTHESIS_BUDGET" default:"12"`
		MaxConsecutiveFailures int    `envconfig:"MAX_CONSECUTIVE_FAILURES" default:"5"`
		DailyTime              string `envconfig:"GENERATION_DAILY_TIME" default:"07:00"`
		TitleWindowDays        int    `envconfig:"TITLE_DEDUP_WINDOW_DAYS" default:"60"`
	} `envconfig:""`

	Queues struct {
		Runs string `envconfig:"RUN_QUEUE_KEY" default:"generation_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
