package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"debate-daily/internal/adapters/repo"
	"debate-daily/internal/adapters/rules"
	"debate-daily/internal/adapters/synthesizer"
	"debate-daily/internal/domain"
	"debate-daily/internal/infra/config"
	"debate-daily/internal/infra/db"
	httpinfra "debate-daily/internal/infra/http"
	infralog "debate-daily/internal/infra/log"
	"debate-daily/internal/infra/metrics"
	"debate-daily/internal/infra/openai"
	"debate-daily/internal/infra/queue"
	"debate-daily/internal/usecase/candidates"
	"debate-daily/internal/usecase/dedup"
	"debate-daily/internal/usecase/generation"
	"debate-daily/internal/usecase/policy"
	"debate-daily/internal/usecase/submission"
)

const dateLayout = "2006-01-02"

type runRequest struct {
	Date                   string `json:"date"`
	Sync                   bool   `json:"sync"`
	DryRun                 bool   `json:"dry_run"`
	MaxConsecutiveFailures int    `json:"max_consecutive_failures"`
	SourceFilter           string `json:"source_filter"`
}

type entryRequest struct {
	Date              string   `json:"date"`
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

func main() {
	cfg := config.Load()
	logger := infralog.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	store := repo.NewPostgres(pool)

	ruleSource, err := rules.NewYAMLSource(cfg.RulesPath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("api: правила не прочитаны, действует политика по умолчанию")
	}
	if cfg.RulesWatch {
		if err := ruleSource.Watch(ctx.Done()); err != nil {
			logger.Warn().Err(err).Msg("api: наблюдение за правилами не запущено")
		}
	}

	resolver := policy.NewResolver(ruleSource, logger)
	detector := dedup.NewDetector(store, cfg.Generation.TitleWindowDays, dedup.DefaultTitleThreshold)
	source := candidates.NewService(store, ruleSource, logger)

	var synth domain.Synthesizer
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, time.Duration(cfg.OpenAI.Timeout)*time.Second)
		synth = synthesizer.NewOpenAI(client, cfg.OpenAI.Model, time.Duration(cfg.OpenAI.Timeout)*time.Second)
	} else {
		logger.Warn().Msg("api: ключ OpenAI не задан, используется синтезатор-заглушка")
		synth = synthesizer.NewSimple()
	}

	genService := generation.NewService(resolver, source, synth, store, store, store, detector, logger)
	submitService := submission.NewService(resolver, store, detector, logger)

	var runQueue domain.RunQueue
	switch {
	case cfg.AMQPURL != "":
		rq, err := queue.NewRabbitRunQueue(cfg.AMQPURL, cfg.Queues.Runs)
		if err != nil {
			log.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		defer rq.Close()
		runQueue = rq
	case cfg.RedisAddr != "":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		runQueue = queue.NewRedisRunQueue(redisClient, cfg.Queues.Runs)
	}

	server := httpinfra.NewServer(logger)
	server.Router.Post("/api/runs", handleRun(genService, runQueue, cfg))
	server.Router.Post("/api/entries", handleSubmit(submitService))
	server.Router.Get("/api/entries", handleListEntries(store))
	server.Router.Get("/api/runs", handleListRuns(store))
	server.Router.Post("/api/rules/reload", func(w http.ResponseWriter, r *http.Request) {
		if err := ruleSource.Reload(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	go func() {
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: HTTP сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func handleRun(genService *generation.Service, runQueue domain.RunQueue, cfg config.AppConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "некорректное тело запроса")
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "некорректная дата, ожидается YYYY-MM-DD")
			return
		}
		maxFailures := req.MaxConsecutiveFailures
		if maxFailures <= 0 {
			maxFailures = cfg.Generation.MaxConsecutiveFailures
		}

		if req.Sync || r.URL.Query().Get("sync") == "1" || runQueue == nil {
			result, runErr := genService.Run(r.Context(), date, generation.RunOptions{
				Cause:                  domain.RunCauseManual,
				DryRun:                 req.DryRun,
				MaxConsecutiveFailures: maxFailures,
				SynthesisBudget:        cfg.Generation.SynthesisBudget,
				SourceFilter:           req.SourceFilter,
			})
			status := http.StatusOK
			if runErr != nil {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, result)
			return
		}

		job := domain.GenerationJob{
			Date:                   date,
			Cause:                  domain.RunCauseManual,
			RequestedAt:            time.Now().UTC(),
			DryRun:                 req.DryRun,
			MaxConsecutiveFailures: maxFailures,
			SourceFilter:           req.SourceFilter,
		}
		job.ID = uuid.NewString()
		if err := runQueue.Enqueue(r.Context(), job); err != nil {
			writeError(w, http.StatusServiceUnavailable, "очередь недоступна")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
	}
}

func handleSubmit(submitService *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "некорректное тело запроса")
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "некорректная дата, ожидается YYYY-MM-DD")
			return
		}

		draft := domain.DraftEntry{
			TopicCode:         req.TopicCode,
			Stance:            domain.Stance(req.Stance),
			Title:             req.Title,
			AuthorName:        req.AuthorName,
			AuthorBio:         req.AuthorBio,
			SourceDescription: req.SourceDescription,
			SourceURL:         req.SourceURL,
			BodyText:          req.BodyText,
			Keywords:          req.Keywords,
		}
		entry, err := submitService.Submit(r.Context(), date, draft)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, entry)
		case errors.Is(err, submission.ErrQualityBlocked):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, submission.ErrDuplicate), errors.Is(err, submission.ErrNoCapacity):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func handleListEntries(store *repo.Postgres) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "некорректная дата, ожидается YYYY-MM-DD")
			return
		}
		entries, err := store.ListByDate(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleListRuns(store *repo.Postgres) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "некорректная дата, ожидается YYYY-MM-DD")
			return
		}
		runs, err := store.ListRuns(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse(dateLayout, raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
