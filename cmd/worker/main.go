package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/luccagoltzman/ia-b2b/internal/app"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	jobmetrics "github.com/luccagoltzman/ia-b2b/internal/jobs"
	"github.com/luccagoltzman/ia-b2b/internal/observability"
	"github.com/luccagoltzman/ia-b2b/internal/platform/db"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
	"github.com/luccagoltzman/ia-b2b/jobs"
	"github.com/luccagoltzman/ia-b2b/report"
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

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	pdfRenderer, err := documents.NewPDFRenderer(report.NewClient(cfg.GotenbergURL))
	if err != nil {
		logger.Error("init pdf renderer", slog.Any("error", err))
		os.Exit(1)
	}
	docs := documents.Set{PDF: pdfRenderer, XLSX: documents.NewXLSXRenderer(), Recorder: metrics}
	store, err := documents.NewFileStore(cfg.DocumentsDir)
	if err != nil {
		logger.Error("init document store", slog.Any("error", err))
		os.Exit(1)
	}

	dispatchJob := jobs.NewDispatchJob(pricetables.NewRepository(pool), docs, store, logger, jobMetrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, jobMetrics)

	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPriceTableDispatch, Handler: dispatchJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("documents_dir", store.Dir()))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
