package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	jobmetrics "github.com/luccagoltzman/ia-b2b/internal/jobs"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockTables struct {
	tables map[string]*pricetables.PriceTable
	err    error
}

func (m *mockTables) Get(ctx context.Context, id string) (*pricetables.PriceTable, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tables[id]
	if !ok {
		return nil, pricetables.ErrNotFound
	}
	return t, nil
}

type stubRenderer struct {
	mu     sync.Mutex
	calls  []string
	failOn documents.Format
}

func (s *stubRenderer) Render(ctx context.Context, doc documents.Document, format documents.Format) (documents.Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if format == s.failOn {
		return documents.Rendered{}, errors.New("gotenberg unavailable")
	}
	name := doc.Filename(format)
	s.calls = append(s.calls, name)
	return documents.Rendered{Filename: name, Data: []byte("doc " + name)}, nil
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Queue: QueueDocuments}, nil
}

func (r *recordingEnqueuer) Close() error { return nil }

type stubInspector struct {
	queues map[string]*asynq.QueueInfo
	err    error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	info, ok := s.queues[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

type stubCleaner struct {
	retention time.Duration
	err       error
}

func (s *stubCleaner) Cleanup(ctx context.Context, olderThan time.Duration) error {
	s.retention = olderThan
	return s.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sentTable() *pricetables.PriceTable {
	return &pricetables.PriceTable{
		ID:   "tbl-1",
		Nome: "Tabela Verão",
		Produtos: []pricetables.Entry{
			{ID: "e1", Produto: "Café", UnidadeMedida: "kg", Quantidade: 5, ValorUnitario: 10},
		},
		Clientes: []clients.Contact{{Nome: "Acme"}, {Nome: "Beta"}},
		Status:   pricetables.StatusSent,
	}
}

type dispatchFixture struct {
	renderer *stubRenderer
	dir      string
	registry *prometheus.Registry
	job      *DispatchJob
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := documents.NewFileStore(dir)
	require.NoError(t, err)
	f := &dispatchFixture{renderer: &stubRenderer{}, dir: dir, registry: prometheus.NewRegistry()}
	tables := &mockTables{tables: map[string]*pricetables.PriceTable{"tbl-1": sentTable()}}
	f.job = NewDispatchJob(tables, f.renderer, store, discard, jobmetrics.NewMetrics(f.registry))
	f.job.WithClock(func() time.Time { return time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC) })
	return f
}

func dispatchTask(t *testing.T, clientes ...string) *asynq.Task {
	t.Helper()
	task, err := NewDispatchTask("tbl-1", clientes)
	require.NoError(t, err)
	return task
}

func savedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// ============================================================================
// DISPATCH
// ============================================================================

func TestDispatchWritesEveryClientAndFormat(t *testing.T) {
	f := newDispatchFixture(t)

	require.NoError(t, f.job.Handle(context.Background(), dispatchTask(t)))

	assert.Equal(t, []string{
		"tabela_Tabela_Verão_Acme_2026-03-09.pdf",
		"tabela_Tabela_Verão_Acme_2026-03-09.xlsx",
		"tabela_Tabela_Verão_Beta_2026-03-09.pdf",
		"tabela_Tabela_Verão_Beta_2026-03-09.xlsx",
	}, savedFiles(t, f.dir))

	data, err := os.ReadFile(filepath.Join(f.dir, "tabela_Tabela_Verão_Beta_2026-03-09.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "doc tabela_Tabela_Verão_Beta_2026-03-09.pdf", string(data))

	series, err := testutil.GatherAndCount(f.registry, "repdesk_price_lists_dispatched_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestDispatchSubsetSkipsRemovedClients(t *testing.T) {
	f := newDispatchFixture(t)

	require.NoError(t, f.job.Handle(context.Background(), dispatchTask(t, "beta", "Gone")))

	assert.Equal(t, []string{
		"tabela_Tabela_Verão_Beta_2026-03-09.pdf",
		"tabela_Tabela_Verão_Beta_2026-03-09.xlsx",
	}, savedFiles(t, f.dir))
}

func TestDispatchDropsDeletedTable(t *testing.T) {
	f := newDispatchFixture(t)
	task, err := NewDispatchTask("missing", nil)
	require.NoError(t, err)

	require.NoError(t, f.job.Handle(context.Background(), task))
	assert.Empty(t, f.renderer.calls)
}

func TestDispatchRetriesOnRenderFailure(t *testing.T) {
	f := newDispatchFixture(t)
	f.renderer.failOn = documents.FormatPDF

	err := f.job.Handle(context.Background(), dispatchTask(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestDispatchSkipsRetryOnBadPayload(t *testing.T) {
	f := newDispatchFixture(t)

	err := f.job.Handle(context.Background(), asynq.NewTask(TaskPriceTableDispatch, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDispatchPropagatesLoadErrors(t *testing.T) {
	f := newDispatchFixture(t)
	f.job.Tables = &mockTables{err: errors.New("connection reset")}

	assert.EqualError(t, f.job.Handle(context.Background(), dispatchTask(t)), "connection reset")
}

// ============================================================================
// CLIENT AND HEALTH
// ============================================================================

func TestEnqueueDispatchBuildsTask(t *testing.T) {
	rec := &recordingEnqueuer{}
	client := NewClientWith(rec)

	require.NoError(t, client.EnqueueDispatch(context.Background(), "tbl-1", []string{"Acme"}))
	require.Len(t, rec.tasks, 1)
	assert.Equal(t, TaskPriceTableDispatch, rec.tasks[0].Type())

	var payload DispatchPayload
	require.NoError(t, json.Unmarshal(rec.tasks[0].Payload(), &payload))
	assert.Equal(t, DispatchPayload{TableID: "tbl-1", Clientes: []string{"Acme"}}, payload)

	assert.Error(t, client.EnqueueDispatch(context.Background(), "", nil))
}

func TestHealthReportsQueue(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{queues: map[string]*asynq.QueueInfo{
		QueueDocuments: {Queue: QueueDocuments, Pending: 3, Failed: 1},
	}}, discard).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queues":[
		{"queue":"documentos","pending":3,"active":0,"scheduled":0,"retry":0,"archived":0,"processed":0,"failed":1},
		{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"archived":0,"processed":0,"failed":0}
	]}`, rec.Body.String())
}

func TestHealthUnavailable(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, discard).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ============================================================================
// CLEANUP
// ============================================================================

func TestIdempotencyCleanupUsesPayloadRetention(t *testing.T) {
	cleaner := &stubCleaner{}
	job := NewIdempotencyCleanupJob(cleaner, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, cleaner.retention)

	cleaner.err = errors.New("timeout")
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestInspectTreatsMissingQueueAsEmpty(t *testing.T) {
	stats, err := Inspect(stubInspector{}, QueueDefault)
	require.NoError(t, err)
	assert.Equal(t, QueueHealth{Queue: QueueDefault}, stats)

	stats, err = Inspect(nil, QueueDocuments)
	require.NoError(t, err)
	assert.Equal(t, QueueDocuments, stats.Queue)

	_, err = Inspect(stubInspector{err: errors.New("redis down")}, QueueDefault)
	assert.Error(t, err)
}

func TestNewWorkerRejectsIncompleteHandler(t *testing.T) {
	_, err := NewWorker(WorkerConfig{
		Logger:   discard,
		Handlers: []TaskHandler{{Type: TaskPriceTableDispatch}},
	})
	assert.ErrorContains(t, err, TaskPriceTableDispatch)
}
