package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/luccagoltzman/ia-b2b/jobs"
)

// QueueStats summarises the dispatch queue.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// Queue is the job queue as seen by the operator commands.
type Queue interface {
	EnqueueDispatch(ctx context.Context, tableID string, clientes []string) error
	Stats(ctx context.Context) (QueueStats, error)
}

// JobsQueue talks to the asynq queue shared with the worker.
type JobsQueue struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsQueue connects to the queue at redisAddr.
func NewJobsQueue(redisAddr string) *JobsQueue {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsQueue{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// EnqueueDispatch queues a price list dispatch.
func (q *JobsQueue) EnqueueDispatch(ctx context.Context, tableID string, clientes []string) error {
	return q.client.EnqueueDispatch(ctx, tableID, clientes)
}

// Stats reports the counters of the document queue, where dispatches run.
func (q *JobsQueue) Stats(ctx context.Context) (QueueStats, error) {
	h, err := jobs.Inspect(q.inspector, jobs.QueueDocuments)
	if err != nil {
		return QueueStats{}, err
	}
	return QueueStats{
		Queue:     h.Queue,
		Pending:   h.Pending,
		Active:    h.Active,
		Scheduled: h.Scheduled,
		Retry:     h.Retry,
		Archived:  h.Archived,
	}, nil
}

// Close releases underlying resources.
func (q *JobsQueue) Close() error {
	return errors.Join(q.inspector.Close(), q.client.Close())
}

var errNoQueue = errors.New("fila não configurada (REDIS_ADDR)")

func (a *App) queueCommand(ctx context.Context, args []string) int {
	fs := a.flags("fila")
	asJSON := fs.Bool("json", false, "saída em JSON")
	if code, done := parse(fs, args); done {
		return code
	}
	if a.deps.Queue == nil {
		return a.fail("fila", errNoQueue)
	}
	stats, err := a.deps.Queue.Stats(ctx)
	if err != nil {
		return a.fail("fila", err)
	}
	if *asJSON {
		return a.printJSON(stats)
	}
	_, _ = fmt.Fprintf(a.deps.Stdout, "fila=%s pendentes=%d ativos=%d agendados=%d retentativas=%d arquivados=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	return ExitOK
}

func (a *App) resendCommand(ctx context.Context, args []string) int {
	fs := a.flags("reenviar")
	tableID := fs.String("tabela", "", "id da tabela (obrigatório)")
	clients := fs.String("clientes", "", "clientes separados por vírgula; vazio envia para todos")
	if code, done := parse(fs, args); done {
		return code
	}
	if *tableID == "" {
		a.errorf("reenviar: --tabela é obrigatório")
		return ExitUsage
	}
	if a.deps.Queue == nil {
		return a.fail("reenviar", errNoQueue)
	}
	table, err := a.deps.Backend.GetTable(ctx, *tableID)
	if err != nil {
		return a.fail("reenviar", err)
	}
	names := splitList(*clients)
	for _, name := range names {
		if _, ok := table.Client(name); !ok {
			a.errorf("reenviar: cliente não associado à tabela: %s", name)
			return ExitError
		}
	}
	if err := a.deps.Queue.EnqueueDispatch(ctx, table.ID, names); err != nil {
		return a.fail("reenviar", err)
	}
	_, _ = fmt.Fprintf(a.deps.Stdout, "Envio da tabela %s reenfileirado.\n", table.Nome)
	return ExitOK
}
