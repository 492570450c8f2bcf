package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	jobmetrics "github.com/luccagoltzman/ia-b2b/internal/jobs"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
)

// TableLoader reads the table to dispatch.
type TableLoader interface {
	Get(ctx context.Context, id string) (*pricetables.PriceTable, error)
}

// DocumentRenderer renders one document in one format.
type DocumentRenderer interface {
	Render(ctx context.Context, doc documents.Document, format documents.Format) (documents.Rendered, error)
}

// FileSaver persists rendered files.
type FileSaver interface {
	Save(name string, data []byte) (string, error)
}

// DispatchJob renders the client-facing price list of a sent table for each
// target client, in every format, and stores the files.
type DispatchJob struct {
	Tables    TableLoader
	Documents DocumentRenderer
	Files     FileSaver
	Formats   []documents.Format
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDispatchJob constructs the job handler. Both PDF and XLSX are produced.
func NewDispatchJob(tables TableLoader, docs DocumentRenderer, files FileSaver, logger *slog.Logger, metrics *jobmetrics.Metrics) *DispatchJob {
	return &DispatchJob{
		Tables:    tables,
		Documents: docs,
		Files:     files,
		Formats:   []documents.Format{documents.FormatPDF, documents.FormatXLSX},
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the dispatch job.
func (j *DispatchJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Tables == nil || j.Documents == nil || j.Files == nil {
		return errors.New("price table dispatch: dependencies not configured")
	}
	var payload DispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.TableID == "" {
		return fmt.Errorf("decode dispatch payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskPriceTableDispatch)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	log := j.log().With(slog.String("table_id", payload.TableID))
	table, err := j.Tables.Get(ctx, payload.TableID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			log.Warn("table removed before dispatch")
			return nil
		}
		resultErr = err
		log.Error("load table", slog.Any("error", err))
		return resultErr
	}

	targets, skipped := j.targets(*table, payload.Clientes)
	for _, name := range skipped {
		log.Warn("client no longer on table", slog.String("cliente", name))
	}
	if len(targets) == 0 {
		log.Info("no clients to dispatch")
		return nil
	}

	at := j.now()
	counts := make([]int, len(j.Formats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, c := range targets {
		doc := pricetables.PriceListDocument(*table, c, at)
		for i, format := range j.Formats {
			g.Go(func() error {
				rendered, err := j.Documents.Render(gctx, doc, format)
				if err != nil {
					return fmt.Errorf("render %s for %s: %w", format, c.DisplayName(), err)
				}
				if _, err := j.Files.Save(rendered.Filename, rendered.Data); err != nil {
					return fmt.Errorf("save %s: %w", rendered.Filename, err)
				}
				return nil
			})
			counts[i]++
		}
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		log.Error("dispatch price lists", slog.Any("error", err))
		return resultErr
	}

	for i, format := range j.Formats {
		j.metrics().AddDispatched(string(format), counts[i])
	}
	log.Info("dispatched price lists", slog.Int("clients", len(targets)), slog.Int("formats", len(j.Formats)))
	return resultErr
}

// targets resolves payload names against the table's current clients. Names
// that no longer match are returned as skipped.
func (j *DispatchJob) targets(t pricetables.PriceTable, names []string) ([]clients.Contact, []string) {
	if len(names) == 0 {
		return t.Clientes, nil
	}
	var (
		out     []clients.Contact
		skipped []string
	)
	for _, name := range names {
		c, ok := t.Client(name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		out = append(out, c)
	}
	return out, skipped
}

func (j *DispatchJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DispatchJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPriceTableDispatch))
	}
	return slog.Default().With(slog.String("job", TaskPriceTableDispatch))
}

func (j *DispatchJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *DispatchJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
