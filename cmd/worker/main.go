package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adminpanel/adminpanel/internal/app"
	"github.com/adminpanel/adminpanel/internal/chat"
	jobmetrics "github.com/adminpanel/adminpanel/internal/jobs"
	"github.com/adminpanel/adminpanel/internal/platform/db"
	"github.com/adminpanel/adminpanel/internal/posts"
	"github.com/adminpanel/adminpanel/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)
	purgeJob := jobs.NewPostsPurgeJob(posts.NewService(posts.NewRepository(pool)), logger, metrics)
	trainJob := jobs.NewModelTrainJob(chat.NewClient(cfg.InferenceURL, cfg.InferenceTimeout), logger, metrics)

	purgeTask, err := jobs.NewPostsPurgeTask(cfg.PostRetention)
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPostsPurge, Handler: purgeJob.Handle},
			{Type: jobs.TaskModelTrain, Handler: trainJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.PurgeSchedule, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
