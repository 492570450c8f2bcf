package visits

import (
	"context"
	"encoding/json"
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

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	visits      map[string]*Visit
	checkpoints map[string][]shared.Checkpoint

	// Error injection
	saveError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{visits: map[string]*Visit{}, checkpoints: map[string][]shared.Checkpoint{}}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	// Writes are staged and only applied when fn succeeds.
	tx := &mockTx{mock: m, visits: map[string]Visit{}, checkpoints: map[string][]shared.Checkpoint{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, v := range tx.visits {
		v := v
		m.visits[id] = &v
	}
	for id, cps := range tx.checkpoints {
		m.checkpoints[id] = append(m.checkpoints[id], cps...)
	}
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (*Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, req ListVisitsRequest) ([]Visit, error) {
	out := []Visit{}
	for _, v := range m.visits {
		if req.Status != nil && v.Status != *req.Status {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (m *mockRepository) Checkpoints(ctx context.Context, id string) ([]shared.Checkpoint, error) {
	return append([]shared.Checkpoint(nil), m.checkpoints[id]...), nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.visits[id]; !ok {
		return ErrNotFound
	}
	delete(m.visits, id)
	delete(m.checkpoints, id)
	return nil
}

type mockTx struct {
	mock        *mockRepository
	visits      map[string]Visit
	checkpoints map[string][]shared.Checkpoint
}

func (t *mockTx) Lock(ctx context.Context, id string) (*Visit, error) {
	return t.mock.Get(ctx, id)
}

func (t *mockTx) Insert(ctx context.Context, v Visit) error {
	t.visits[v.ID] = v
	return nil
}

func (t *mockTx) Save(ctx context.Context, v Visit) error {
	if t.mock.saveError != nil {
		return t.mock.saveError
	}
	t.visits[v.ID] = v
	return nil
}

func (t *mockTx) AppendCheckpoint(ctx context.Context, id string, cp shared.Checkpoint) error {
	t.checkpoints[id] = append(t.checkpoints[id], cp)
	return nil
}

type transitions map[string]int

func (m transitions) StatusTransition(entity, status string) { m[entity+":"+status]++ }

func newTestService(repo Repository, metrics Metrics) *Service {
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time {
		now = now.Add(time.Hour)
		return now
	}
	return svc
}

// ============================================================================
// STATUS
// ============================================================================

func TestEveryStatusHasInfo(t *testing.T) {
	for _, st := range Statuses {
		info, ok := st.Info()
		assert.True(t, ok, st)
		assert.NotEmpty(t, info.Icon)
	}
	_, err := ParseStatus("adiada")
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Equal(t, "Em Andamento", StatusInProgress.Label())
	assert.NotContains(t, AvailableTransitions(StatusDone), StatusDone)
	assert.Len(t, AvailableTransitions(StatusDone), 5)
}

// ============================================================================
// SERVICE TESTS
// ============================================================================

func TestCreateSchedulesVisit(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)

	v, err := svc.Create(context.Background(), VisitInput{Cliente: " Acme ", Data: "2026-04-10", Hora: "14:00"}, "Ana")
	require.NoError(t, err)
	assert.Equal(t, "Acme", v.Cliente)
	assert.Equal(t, StatusScheduled, v.Status)
	require.Len(t, repo.checkpoints[v.ID], 1)
	assert.Equal(t, "Agendada", repo.checkpoints[v.ID][0].Label)

	_, err = svc.Create(context.Background(), VisitInput{Cliente: "Acme", Data: "2026-04-10", Status: "adiada"}, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransitionAppendsCheckpoint(t *testing.T) {
	repo := newMockRepository()
	metrics := transitions{}
	svc := newTestService(repo, metrics)
	v, err := svc.Create(context.Background(), VisitInput{Cliente: "Acme", Data: "2026-04-10"}, "")
	require.NoError(t, err)

	desc := "cliente confirmou por telefone"
	got, err := svc.Transition(context.Background(), v.ID, TransitionInput{Status: "confirmada", Descricao: &desc})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	require.Len(t, got.Checkpoints, 2)
	assert.Equal(t, "confirmada", got.Checkpoints[0].Status)
	assert.Equal(t, desc, *got.Checkpoints[0].Descricao)
	assert.Equal(t, 1, metrics["visita:confirmada"])

	_, err = svc.Transition(context.Background(), v.ID, TransitionInput{Status: "confirmada"})
	assert.ErrorIs(t, err, ErrSameStatus)
}

func TestTransitionFailureWritesNothing(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	v, err := svc.Create(context.Background(), VisitInput{Cliente: "Acme", Data: "2026-04-10"}, "")
	require.NoError(t, err)

	repo.saveError = errors.New("connection reset")
	_, err = svc.Transition(context.Background(), v.ID, TransitionInput{Status: "realizada"})
	require.Error(t, err)
	assert.Equal(t, StatusScheduled, repo.visits[v.ID].Status)
	assert.Len(t, repo.checkpoints[v.ID], 1)
}

func TestUpdateKeepsStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	v, err := svc.Create(context.Background(), VisitInput{Cliente: "Acme", Data: "2026-04-10", Status: "confirmada"}, "")
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), v.ID, VisitInput{Cliente: "Acme", Data: "2026-04-12", Status: "realizada"})
	require.NoError(t, err)
	assert.Equal(t, "2026-04-12", got.Data)
	assert.Equal(t, StatusConfirmed, got.Status)

	_, err = svc.Update(context.Background(), "missing", VisitInput{Cliente: "Acme", Data: "2026-04-12"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

// ============================================================================
// HANDLER TESTS
// ============================================================================

func newTestRouter(svc VisitService) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/visitas", h.MountRoutes)
	return r
}

func TestHandlerVisitLifecycle(t *testing.T) {
	svc := newTestService(newMockRepository(), nil)
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/visitas", strings.NewReader(`{"cliente":"Acme","data":"10/04/2026"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/visitas", strings.NewReader(`{"cliente":"Acme","data":"2026-04-10","hora":"09:30"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created Visit
	require.NoError(t, jsonDecode(rr, &created))

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/visitas/"+created.ID+"/status", strings.NewReader(`{"status":"em_andamento"}`))
	req.Header.Set(ActorHeader, "Bruno")
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"usuario":"Bruno"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/visitas?status=desconhecido", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/visitas/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/visitas/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func jsonDecode(rr *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rr.Body.Bytes(), v)
}
