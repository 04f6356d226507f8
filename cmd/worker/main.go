package main

import (
	"context"
	"errors"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"debate-daily/internal/adapters/repo"
	"debate-daily/internal/adapters/rules"
	"debate-daily/internal/adapters/synthesizer"
	"debate-daily/internal/domain"
	"debate-daily/internal/infra/config"
	"debate-daily/internal/infra/db"
	infralog "debate-daily/internal/infra/log"
	"debate-daily/internal/infra/metrics"
	"debate-daily/internal/infra/openai"
	"debate-daily/internal/infra/queue"
	"debate-daily/internal/usecase/candidates"
	"debate-daily/internal/usecase/dedup"
	"debate-daily/internal/usecase/generation"
	"debate-daily/internal/usecase/policy"
)

func main() {
	cfg := config.Load()
	logger := infralog.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("worker: нет подключения к БД")
	}
	defer pool.Close()
	store := repo.NewPostgres(pool)

	ruleSource, err := rules.NewYAMLSource(cfg.RulesPath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("worker: правила не прочитаны, действует политика по умолчанию")
	}
	if cfg.RulesWatch {
		if err := ruleSource.Watch(ctx.Done()); err != nil {
			logger.Warn().Err(err).Msg("worker: наблюдение за правилами не запущено")
		}
	}

	var synth domain.Synthesizer
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, time.Duration(cfg.OpenAI.Timeout)*time.Second)
		synth = synthesizer.NewOpenAI(client, cfg.OpenAI.Model, time.Duration(cfg.OpenAI.Timeout)*time.Second)
	} else {
		logger.Warn().Msg("worker: ключ OpenAI не задан, используется синтезатор-заглушка")
		synth = synthesizer.NewSimple()
	}

	resolver := policy.NewResolver(ruleSource, logger)
	detector := dedup.NewDetector(store, cfg.Generation.TitleWindowDays, dedup.DefaultTitleThreshold)
	source := candidates.NewService(store, ruleSource, logger)
	genService := generation.NewService(resolver, source, synth, store, store, store, detector, logger)

	var runQueue domain.RunQueue
	switch {
	case cfg.AMQPURL != "":
		rq, err := queue.NewRabbitRunQueue(cfg.AMQPURL, cfg.Queues.Runs)
		if err != nil {
			log.Fatal().Err(err).Msg("worker: нет подключения к RabbitMQ")
		}
		defer rq.Close()
		runQueue = rq
	case cfg.RedisAddr != "":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		runQueue = queue.NewRedisRunQueue(redisClient, cfg.Queues.Runs)
	default:
		log.Fatal().Msg("worker: не задан ни AMQP_URL, ни REDIS_ADDR")
	}

	go metrics.StartServer(ctx, logger, ":"+strconv.Itoa(cfg.Port))

	logger.Info().Str("queue", cfg.Queues.Runs).Msg("worker: запущен")

	for {
		job, ack, err := runQueue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info().Msg("worker: остановка")
				return
			}
			logger.Error().Err(err).Msg("worker: ошибка чтения из очереди")
			time.Sleep(time.Second)
			continue
		}

		maxFailures := job.MaxConsecutiveFailures
		if maxFailures <= 0 {
			maxFailures = cfg.Generation.MaxConsecutiveFailures
		}
		result, runErr := genService.Run(ctx, job.Date, generation.RunOptions{
			Cause:                  job.Cause,
			DryRun:                 job.DryRun,
			MaxConsecutiveFailures: maxFailures,
			SynthesisBudget:        cfg.Generation.SynthesisBudget,
			SourceFilter:           job.SourceFilter,
		})
		if runErr != nil {
			logger.Error().Err(runErr).Str("job", job.ID).Msg("worker: запуск завершился ошибкой")
		} else {
			logger.Info().
				Str("job", job.ID).
				Str("reason", string(result.Reason)).
				Int("published", result.Published).
				Msg("worker: запуск завершён")
		}

		// Задача подтверждается и при ошибке запуска: журнал запусков
		// уже содержит результат, повтор выполняют вручную через API.
		if ctx.Err() != nil {
			_ = ack(false)
			return
		}
		if err := ack(true); err != nil {
			logger.Error().Err(err).Str("job", job.ID).Msg("worker: не удалось подтвердить задачу")
		}
	}
}
