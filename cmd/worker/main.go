package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/quotient-crm/quotient/internal/app"
	"github.com/quotient-crm/quotient/internal/exports"
	"github.com/quotient-crm/quotient/internal/platform/db"
	"github.com/quotient-crm/quotient/internal/storage"
	"github.com/quotient-crm/quotient/internal/webhooks"
	"github.com/quotient-crm/quotient/jobs"
)

func main() {
	_ = godotenv.Load()

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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	files := storage.NewLocal(cfg.StorageRoot, cfg.StorageBaseURL)

	webhookService := webhooks.NewService(logger, webhooks.NewRepository(pool), queue)
	exportsService := exports.NewService(logger, exports.NewRepository(pool), files, queue)

	mailer := jobs.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom,
		cfg.SMTPUsername, cfg.SMTPPassword)

	emailJob := jobs.NewEmailJob(mailer, logger)
	webhookJob := jobs.NewWebhookJob(webhookService, logger)
	exportJob := jobs.NewExportJob(exportsService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: emailJob.Handle},
			{Type: jobs.TaskTypeWebhookDeliver, Handler: webhookJob.HandleDeliver},
			{Type: jobs.TaskTypeWebhookSweep, Handler: webhookJob.HandleSweep},
			{Type: jobs.TaskTypeExportRun, Handler: exportJob.HandleRun},
			{Type: jobs.TaskTypeReportSweep, Handler: exportJob.HandleSweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "* * * * *", Task: jobs.NewWebhookSweepTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
			{Spec: "*/5 * * * *", Task: jobs.NewReportSweepTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
