package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"

	"kanvaro_backend/internal/search/repository"
	"kanvaro_backend/platform/config"
	"kanvaro_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// SearchLogWriter persists one search-log row.
type SearchLogWriter interface {
	CreateSearchLog(ctx context.Context, params repository.CreateSearchLogParams) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logs   SearchLogWriter
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, logs SearchLogWriter, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
		Logger: newAsynqLogger(log),
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		logs:   logs,
		log:    log,
	}

	mux.HandleFunc(TaskSearchLogged, w.handleSearchLogged)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSearchLogged(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSearchLoggedPayload(task)
	if err != nil {
		return fmt.Errorf("parse search log payload: %v: %w", err, asynq.SkipRetry)
	}

	params, err := searchLogParams(payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return w.logs.CreateSearchLog(ctx, params)
}

// searchLogParams validates a payload and converts it to repository params.
// A blank user id is stored as NULL.
func searchLogParams(payload SearchLoggedPayload) (repository.CreateSearchLogParams, error) {
	if strings.TrimSpace(payload.Query) == "" {
		return repository.CreateSearchLogParams{}, fmt.Errorf("search log query is required")
	}
	if payload.ResultCount < 0 {
		return repository.CreateSearchLogParams{}, fmt.Errorf("search log result count cannot be negative")
	}

	params := repository.CreateSearchLogParams{
		Query:       payload.Query,
		SearchText:  payload.SearchText,
		ResultCount: payload.ResultCount,
		TopScore:    payload.TopScore,
		TookMs:      payload.TookMs,
	}

	if payload.UserID != "" {
		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			return repository.CreateSearchLogParams{}, fmt.Errorf("invalid search log user id: %w", err)
		}
		params.UserID = &userID
	}

	if !payload.SearchedAt.IsZero() {
		searchedAt := payload.SearchedAt
		params.CreatedAt = &searchedAt
	}

	return params, nil
}

// asynqLogger routes asynq's internal logging through the app logger.
type asynqLogger struct {
	log *logger.Logger
}

func newAsynqLogger(log *logger.Logger) *asynqLogger {
	if log == nil {
		log = logger.Nop()
	}
	return &asynqLogger{log: log}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Error(fmt.Sprint(args...), "fatal", true)
	os.Exit(1)
}
