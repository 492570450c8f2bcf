package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/luccagoltzman/ia-b2b/internal/app"
	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/observability"
	"github.com/luccagoltzman/ia-b2b/internal/platform/db"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
	"github.com/luccagoltzman/ia-b2b/internal/visits"
	"github.com/luccagoltzman/ia-b2b/jobs"
	"github.com/luccagoltzman/ia-b2b/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	metrics := observability.NewMetrics()

	reportClient := report.NewClient(cfg.GotenbergURL)
	pdfRenderer, err := documents.NewPDFRenderer(reportClient)
	if err != nil {
		logger.Error("init pdf renderer", slog.Any("error", err))
		os.Exit(1)
	}
	docs := documents.Set{PDF: pdfRenderer, XLSX: documents.NewXLSXRenderer(), Recorder: metrics}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	clientsService := clients.NewService(clients.NewRepository(dbpool))

	proposalsService := proposals.NewService(proposals.NewRepository(dbpool), logger, metrics,
		proposals.Options{StrictCheckpoints: cfg.StrictCheckpoints})

	tablesService := pricetables.NewService(pricetables.Deps{
		Repo:       pricetables.NewRepository(dbpool),
		Proposals:  proposalsService,
		Dispatcher: jobClient,
		Documents:  docs,
		Guard:      shared.NewIdempotencyStore(dbpool),
		Metrics:    metrics,
		Logger:     logger,
	})

	visitsService := visits.NewService(visits.NewRepository(dbpool), logger, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ClientsHandler:   clients.NewHandler(logger, clientsService),
		TablesHandler:    pricetables.NewHandler(logger, tablesService),
		ProposalsHandler: proposals.NewHandler(logger, proposalsService, docs),
		VisitsHandler:    visits.NewHandler(logger, visitsService),
		ReportHandler:    report.NewHandler(reportClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
