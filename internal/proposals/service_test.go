package proposals

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	proposals   map[string]*Proposal
	checkpoints map[string][]shared.Checkpoint

	// Error injection
	txError         error
	appendError     error
	checkpointError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		proposals:   make(map[string]*Proposal),
		checkpoints: make(map[string][]shared.Checkpoint),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, &mockTxRepo{mock: m})
}

func (m *mockRepository) Get(ctx context.Context, id string) (*Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	out := []Proposal{}
	for _, p := range m.proposals {
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Checkpoints(ctx context.Context, id string) ([]shared.Checkpoint, error) {
	if m.checkpointError != nil {
		return nil, m.checkpointError
	}
	return append([]shared.Checkpoint(nil), m.checkpoints[id]...), nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.proposals[id]; !ok {
		return ErrNotFound
	}
	delete(m.proposals, id)
	delete(m.checkpoints, id)
	return nil
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) Lock(ctx context.Context, id string) (*Proposal, error) {
	return t.mock.Get(ctx, id)
}

func (t *mockTxRepo) Insert(ctx context.Context, p Proposal) error {
	t.mock.proposals[p.ID] = &p
	return nil
}

func (t *mockTxRepo) Save(ctx context.Context, p Proposal) error {
	if _, ok := t.mock.proposals[p.ID]; !ok {
		return ErrNotFound
	}
	t.mock.proposals[p.ID] = &p
	return nil
}

func (t *mockTxRepo) AppendCheckpoint(ctx context.Context, id string, cp shared.Checkpoint) error {
	if t.mock.appendError != nil {
		return t.mock.appendError
	}
	t.mock.checkpoints[id] = append(t.mock.checkpoints[id], cp)
	return nil
}

type countingMetrics struct {
	created     map[string]int
	transitions map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{created: map[string]int{}, transitions: map[string]int{}}
}

func (c *countingMetrics) ProposalCreated(origin string) { c.created[origin]++ }
func (c *countingMetrics) StatusTransition(entity, status string) {
	c.transitions[entity+":"+status]++
}

func newTestService(repo Repository, metrics Metrics, opts Options, logs io.Writer) *Service {
	if logs == nil {
		logs = io.Discard
	}
	svc := NewService(repo, slog.New(slog.NewTextHandler(logs, nil)), metrics, opts)
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	return svc
}

func f64(v float64) *float64 { return &v }

// ============================================================================
// STATUS VOCABULARY
// ============================================================================

func TestEveryStatusHasInfo(t *testing.T) {
	for _, st := range Statuses {
		info, ok := st.Info()
		assert.True(t, ok, st)
		assert.NotEmpty(t, info.Label)
		assert.NotEmpty(t, info.Class)
		assert.NotEmpty(t, info.Icon)
	}
	_, ok := Status("arquivada").Info()
	assert.False(t, ok)
	assert.Equal(t, "Arquivada", Status("arquivada").Label())
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	st, err := ParseStatus("em_analise_diretoria")
	require.NoError(t, err)
	assert.Equal(t, StatusBoardReview, st)

	_, err = ParseStatus("approved")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAvailableTransitionsExcludeCurrent(t *testing.T) {
	for _, current := range Statuses {
		options := AvailableTransitions(current)
		assert.Len(t, options, len(Statuses)-1)
		assert.NotContains(t, options, current)
	}
}

func TestSyntheticHistory(t *testing.T) {
	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	cps := SyntheticHistory(Proposal{ID: "p1", Status: StatusSent, DataCriacao: created})
	require.Len(t, cps, 1)
	assert.Equal(t, "enviada", cps[0].Status)
	assert.Equal(t, "Enviada", cps[0].Label)
	assert.Equal(t, created, cps[0].Data)
}

// ============================================================================
// SERVICE TESTS
// ============================================================================

func TestCreateDerivesValueAndRecordsCheckpoint(t *testing.T) {
	repo := newMockRepository()
	metrics := newCountingMetrics()
	svc := newTestService(repo, metrics, Options{}, nil)

	p, err := svc.Create(context.Background(), ProposalInput{
		Cliente:       "Acme",
		ValorUnitario: f64(100),
		Quantidade:    f64(3),
		Desconto:      f64(10),
		DescontoTipo:  "percentual",
		Valor:         f64(1),
	}, "Ana")
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, 270.0, p.Valor)
	assert.True(t, p.ValorBloqueado)
	require.Len(t, repo.checkpoints[p.ID], 1)
	assert.Equal(t, "rascunho", repo.checkpoints[p.ID][0].Status)
	require.NotNil(t, repo.checkpoints[p.ID][0].Usuario)
	assert.Equal(t, "Ana", *repo.checkpoints[p.ID][0].Usuario)
	assert.Equal(t, 1, metrics.created[OriginManual])
}

func TestCreateKeepsManualValueWhenNotComputable(t *testing.T) {
	svc := newTestService(newMockRepository(), nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme", Valor: f64(1500.5)}, "")
	require.NoError(t, err)
	assert.Equal(t, 1500.5, p.Valor)
	assert.False(t, p.ValorBloqueado)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newMockRepository(), nil, Options{}, nil)
	_, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme", Status: "finalizada"}, "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTransitionHistoryIsAppendOnly(t *testing.T) {
	repo := newMockRepository()
	metrics := newCountingMetrics()
	svc := newTestService(repo, metrics, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme"}, "")
	require.NoError(t, err)

	path := []Status{StatusPending, StatusSent, StatusPurchasingReview, StatusBoardReview, StatusApproved}
	var snapshot []shared.Checkpoint
	for i, target := range path {
		desc := "passo"
		updated, err := svc.Transition(context.Background(), p.ID, TransitionInput{Status: string(target), Descricao: &desc})
		require.NoError(t, err)
		assert.Equal(t, target, updated.Status)
		require.Len(t, repo.checkpoints[p.ID], i+2)

		for j, cp := range snapshot {
			assert.Equal(t, cp, repo.checkpoints[p.ID][j])
		}
		snapshot = append([]shared.Checkpoint(nil), repo.checkpoints[p.ID]...)

		assert.Equal(t, string(target), updated.Checkpoints[0].Status)
	}
	assert.Equal(t, 1, metrics.transitions["proposta:aprovada"])
}

func TestTransitionFromRejectedToApproved(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme", Status: "rejeitada"}, "")
	require.NoError(t, err)

	updated, err := svc.Transition(context.Background(), p.ID, TransitionInput{Status: "aprovada"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)
	require.Len(t, updated.Checkpoints, 2)
	assert.Equal(t, "aprovada", updated.Checkpoints[0].Status)
	assert.Equal(t, "Aprovada", updated.Checkpoints[0].Label)
}

func TestTransitionRejectsSameStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme"}, "")
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), p.ID, TransitionInput{Status: "rascunho"})
	assert.ErrorIs(t, err, ErrSameStatus)
	assert.Len(t, repo.checkpoints[p.ID], 1)
}

func TestTransitionFailureLeavesStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme"}, "")
	require.NoError(t, err)

	repo.appendError = errors.New("disk full")
	_, err = svc.Transition(context.Background(), p.ID, TransitionInput{Status: "enviada"})
	require.Error(t, err)
	assert.Equal(t, StatusDraft, repo.proposals[p.ID].Status)
}

func TestTransitionMissingProposal(t *testing.T) {
	svc := newTestService(newMockRepository(), nil, Options{}, nil)
	_, err := svc.Transition(context.Background(), "missing", TransitionInput{Status: "enviada"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateKeepsStatusAndRecomputes(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme", Status: "enviada", ValorUnitario: f64(10), Quantidade: f64(2)}, "")
	require.NoError(t, err)
	assert.Equal(t, 20.0, p.Valor)

	updated, err := svc.Update(context.Background(), p.ID, ProposalInput{Cliente: "Acme", Status: "aprovada", ValorUnitario: f64(10), Quantidade: f64(5), Valor: f64(20)})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)
	assert.Equal(t, 50.0, updated.Valor)
	assert.Equal(t, p.DataCriacao, updated.DataCriacao)
}

func TestGetSortsCheckpointsAndWarnsOnDivergence(t *testing.T) {
	repo := newMockRepository()
	logs := &bytes.Buffer{}
	svc := newTestService(repo, nil, Options{StrictCheckpoints: true}, logs)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme"}, "")
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), p.ID, TransitionInput{Status: "enviada"})
	require.NoError(t, err)

	repo.proposals[p.ID].Status = StatusCanceled
	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, got.Checkpoints, 2)
	assert.Equal(t, "enviada", got.Checkpoints[0].Status)
	assert.Equal(t, "rascunho", got.Checkpoints[1].Status)
	assert.Contains(t, logs.String(), "proposal status diverges from history")
}

func TestCreateFromTableSumsItems(t *testing.T) {
	repo := newMockRepository()
	metrics := newCountingMetrics()
	svc := newTestService(repo, metrics, Options{}, nil)

	p, err := svc.CreateFromTable(context.Background(), TableDraft{
		TabelaID:   "t1",
		TabelaNome: "Tabela Verão",
		Cliente:    clients.Contact{Nome: "Acme", CNPJ: "12.345.678/0001-90"},
		Itens: []Item{
			{ProdutoID: "e1", Produto: "Café", ValorUnitario: 10, Quantidade: 5},
			{ProdutoID: "e2", Produto: "Açúcar", ValorUnitario: 100, Quantidade: 2, AliquotaIpi: 18, Desconto: 10, DescontoTipo: pricing.DiscountFlat},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "Acme", p.Cliente)
	assert.Equal(t, "12.345.678/0001-90", p.ClienteCnpj)
	assert.Equal(t, 266.0, p.Valor)
	assert.Equal(t, 216.0, p.Itens[1].ValorTotal)
	assert.Equal(t, "t1", p.TabelaID)
	assert.Equal(t, 1, metrics.created[OriginTable])

	_, err = svc.CreateFromTable(context.Background(), TableDraft{Cliente: clients.Contact{Nome: "Acme"}})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

// ============================================================================
// HANDLER TESTS
// ============================================================================

type stubRenderer struct{ calls int }

func (s *stubRenderer) Render(ctx context.Context, doc documents.Document) ([]byte, error) {
	s.calls++
	return []byte("PDF:" + doc.Title), nil
}

func newTestRouter(svc ProposalService, docs documents.Set) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, docs)
	r := chi.NewRouter()
	r.Route("/propostas", h.MountRoutes)
	return r
}

func TestHandlerTransitionMessages(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme"}, "")
	require.NoError(t, err)
	router := newTestRouter(svc, documents.Set{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/propostas/"+p.ID+"/status", strings.NewReader(`{"status":"inexistente"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "status de proposta inválido")

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/propostas/"+p.ID+"/status", strings.NewReader(`{"status":"enviada","descricao":"enviada por e-mail"}`))
	req.Header.Set(ActorHeader, "Ana")
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"enviada"`)
	assert.Equal(t, "Ana", *repo.checkpoints[p.ID][1].Usuario)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/propostas/missing/status", strings.NewReader(`{"status":"enviada"}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerTransitionsOmitCurrent(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme", Status: "pendente"}, "")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	newTestRouter(svc, documents.Set{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/propostas/"+p.ID+"/transicoes", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `"status":"pendente"`)
	assert.Contains(t, rr.Body.String(), `"status":"aprovada"`)
}

func TestHandlerOrderPDF(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil, Options{}, nil)
	p, err := svc.Create(context.Background(), ProposalInput{Cliente: "Acme", Titulo: "Pedido Café", ValorUnitario: f64(10), Quantidade: f64(3)}, "")
	require.NoError(t, err)

	renderer := &stubRenderer{}
	rr := httptest.NewRecorder()
	newTestRouter(svc, documents.Set{PDF: renderer}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/propostas/"+p.ID+"/pedido.pdf", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, documents.ContentTypePDF, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "pedido_Pedido_Café_Acme_")
	assert.Equal(t, "PDF:PEDIDO", rr.Body.String())
	assert.Equal(t, 1, renderer.calls)
}
