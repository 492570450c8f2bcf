package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/luccagoltzman/ia-b2b/cmd/repctl/cli"
	"github.com/luccagoltzman/ia-b2b/internal/apiclient"
	"github.com/luccagoltzman/ia-b2b/internal/app"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/platform/cache"
	"github.com/luccagoltzman/ia-b2b/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping repctl")
		return cli.ExitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return cli.ExitError
	}
	logger := app.NewCLILogger(cfg)

	opts := []apiclient.Option{
		apiclient.WithAPIKey(cfg.APIKey),
		apiclient.WithLogger(logger),
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
	}
	var queue *cli.JobsQueue
	if redisClient, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Debug("redis unavailable, benchmark cache and queue commands disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		opts = append(opts, apiclient.WithBenchmarkCache(cache.NewJSONCache(redisClient, "repctl:benchmarks", cfg.BenchmarkCacheTTL)))
		queue = cli.NewJobsQueue(cfg.RedisAddr)
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warn("queue close", slog.Any("error", err))
			}
		}()
	}

	pdfRenderer, err := documents.NewPDFRenderer(report.NewClient(cfg.GotenbergURL))
	if err != nil {
		logger.Error("init pdf renderer", slog.Any("error", err))
		return cli.ExitError
	}

	deps := cli.Deps{
		Backend:     apiclient.New(cfg.APIBaseURL, opts...),
		Documents:   documents.Set{PDF: pdfRenderer, XLSX: documents.NewXLSXRenderer()},
		Actor:       cfg.Actor,
		OutDir:      cfg.DocumentsDir,
		SettleDelay: cfg.SelectionSettleDelay,
		Logger:      logger,
	}
	if queue != nil {
		deps.Queue = queue
	}
	return cli.New(deps).Run(ctx, os.Args[1:])
}
