package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"debate-daily/internal/adapters/repo"
	"debate-daily/internal/domain"
	"debate-daily/internal/infra/cache"
	"debate-daily/internal/infra/config"
	"debate-daily/internal/infra/db"
	infralog "debate-daily/internal/infra/log"
	"debate-daily/internal/infra/metrics"
	"debate-daily/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := infralog.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.TZ).Msg("scheduler: неизвестный часовой пояс")
	}
	dailyAt, err := time.Parse("15:04", cfg.Generation.DailyTime)
	if err != nil {
		log.Fatal().Err(err).Str("time", cfg.Generation.DailyTime).Msg("scheduler: некорректное время запуска")
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()
	store := repo.NewPostgres(pool)

	var runQueue domain.RunQueue
	var onceCache domain.Cache
	switch {
	case cfg.AMQPURL != "":
		rq, err := queue.NewRabbitRunQueue(cfg.AMQPURL, cfg.Queues.Runs)
		if err != nil {
			log.Fatal().Err(err).Msg("scheduler: нет подключения к RabbitMQ")
		}
		defer rq.Close()
		runQueue = rq
	case cfg.RedisAddr != "":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		runQueue = queue.NewRedisRunQueue(redisClient, cfg.Queues.Runs)
	default:
		log.Fatal().Msg("scheduler: не задан ни AMQP_URL, ни REDIS_ADDR")
	}
	if cfg.RedisAddr != "" {
		onceCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	go metrics.StartServer(ctx, logger, ":"+strconv.Itoa(cfg.Port))

	logger.Info().Str("daily_time", cfg.Generation.DailyTime).Str("tz", cfg.TZ).Msg("scheduler: запущен")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановка")
			return
		case <-ticker.C:
		}

		now := time.Now().In(loc)
		due := time.Date(now.Year(), now.Month(), now.Day(), dailyAt.Hour(), dailyAt.Minute(), 0, 0, loc)
		if now.Before(due) {
			continue
		}
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		enqueue := func() error {
			acquired, err := store.Acquire(ctx, day, due.UTC())
			if err != nil {
				return err
			}
			if !acquired {
				return nil
			}
			job := domain.GenerationJob{
				ID:          uuid.NewString(),
				Date:        day,
				Cause:       domain.RunCauseScheduled,
				RequestedAt: time.Now().UTC(),
			}
			if err := runQueue.Enqueue(ctx, job); err != nil {
				return err
			}
			logger.Info().Str("date", day.Format("2006-01-02")).Str("job", job.ID).Msg("scheduler: задача поставлена в очередь")
			return nil
		}

		if onceCache != nil {
			err = onceCache.Once(ctx, "generation:enqueue:"+day.Format("2006-01-02"), 24*time.Hour, enqueue)
		} else {
			err = enqueue()
		}
		if err != nil {
			logger.Error().Err(err).Msg("scheduler: не удалось поставить задачу")
		}
	}
}
