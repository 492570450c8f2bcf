package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luccagoltzman/ia-b2b/internal/platform/cache"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
	"github.com/luccagoltzman/ia-b2b/internal/visits"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestClient(t *testing.T, r http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", append([]Option{WithLogger(quietLogger())}, opts...)...)
}

// ============================================================================
// ERROR TAXONOMY
// ============================================================================

func TestMissingEndpointNamesRoute(t *testing.T) {
	c := newTestClient(t, chi.NewRouter())

	_, err := c.TransitionProposal(context.Background(), "p1", proposals.TransitionInput{Status: "aprovada"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEndpoint)
	assert.Equal(t, "Endpoint não encontrado. O backend precisa implementar POST /api/propostas/:id/status", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestNotImplementedIsMissingEndpoint(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/ia/proposta-por-prompt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})
	c := newTestClient(t, r)

	_, err := c.ProposalFromPrompt(context.Background(), "proposta para Acme")
	assert.ErrorIs(t, err, ErrMissingEndpoint)
	assert.Contains(t, err.Error(), "POST /api/ia/proposta-por-prompt")
}

func TestBadRequestMessages(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/propostas/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dados inválidos: status de proposta inválido")
	})
	r.Post("/api/visitas/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c := newTestClient(t, r)

	_, err := c.TransitionProposal(context.Background(), "p1", proposals.TransitionInput{Status: "x"})
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, "dados inválidos: status de proposta inválido", err.Error())

	_, err = c.TransitionVisit(context.Background(), "v1", visits.TransitionInput{Status: "x"})
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, genericInvalidMessage, err.Error())
}

func TestServerAndNetworkFailuresAreGeneric(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/propostas", func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "pq: relation does not exist")
	})
	c := newTestClient(t, r)

	_, err := c.ListProposals(context.Background(), ProposalFilter{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, genericFailureMessage, err.Error())

	srv := httptest.NewServer(r)
	srv.Close()
	offline := New(srv.URL, WithLogger(quietLogger()))
	_, err = offline.ListProposals(context.Background(), ProposalFilter{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecordNotFoundKeepsBackendMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/propostas/{id}", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})
	c := newTestClient(t, r)

	_, err := c.GetProposal(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "recurso não encontrado", err.Error())
}

func TestDuplicateKeepsBackendMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/tabelas-produtos/{id}/gerar-proposta", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, shared.ErrIdempotencyConflict)
	})
	c := newTestClient(t, r)

	_, err := c.GenerateProposal(context.Background(), "t1", pricetables.GenerateProposalInput{Cliente: "Acme"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "registro duplicado: requisição já processada", err.Error())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestOtherClientErrorsKeepBackendMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/propostas/{id}", func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "representante sem acesso à proposta")
	})
	r.Get("/api/propostas", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	c := newTestClient(t, r)

	_, err := c.GetProposal(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "representante sem acesso à proposta", err.Error())

	// without a message there is nothing to show but the generic text
	_, err = c.ListProposals(context.Background(), ProposalFilter{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrRejected)
}

// ============================================================================
// REQUESTS
// ============================================================================

func TestGenerateProposalSendsIDsAndBearer(t *testing.T) {
	var (
		gotAuth string
		gotKey  string
		gotBody map[string]any
	)
	r := chi.NewRouter()
	r.Post("/api/tabelas-produtos/{id}/gerar-proposta", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get(pricetables.IdempotencyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		httpx.JSON(w, http.StatusCreated, proposals.Proposal{ID: "p-9", Cliente: "Acme", TabelaID: chi.URLParam(r, "id"), Valor: 50})
	})
	c := newTestClient(t, r, WithAPIKey(" secret "))

	p, err := c.GenerateProposal(context.Background(), "t1", pricetables.GenerateProposalInput{
		Cliente:        "Acme",
		Selecoes:       []pricetables.Selecao{{ProdutoID: "e1"}},
		IdempotencyKey: "sessao-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "p-9", p.ID)
	assert.Equal(t, "t1", p.TabelaID)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "sessao-1", gotKey)
	assert.Equal(t, map[string]any{
		"cliente":  "Acme",
		"selecoes": []any{map[string]any{"produtoId": "e1"}},
	}, gotBody)
}

func TestTransitionSendsNullDescription(t *testing.T) {
	var raw map[string]json.RawMessage
	r := chi.NewRouter()
	r.Post("/api/propostas/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		httpx.JSON(w, http.StatusOK, proposals.Proposal{ID: "p1", Status: proposals.StatusApproved})
	})
	c := newTestClient(t, r)

	p, err := c.TransitionProposal(context.Background(), "p1", proposals.TransitionInput{Status: "aprovada"})
	require.NoError(t, err)
	assert.Equal(t, proposals.StatusApproved, p.Status)
	assert.Equal(t, "null", string(raw["descricao"]))
	_, hasUser := raw["usuario"]
	assert.False(t, hasUser)
}

func TestTableDocumentReturnsFilename(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/tabelas-produtos/{id}/documento.{format}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme", r.URL.Query().Get("cliente"))
		httpx.Attachment(w, "application/pdf", "tabela_Verão_Acme_2026-03-09.pdf", []byte("%PDF"))
	})
	c := newTestClient(t, r)

	data, name, err := c.TableDocument(context.Background(), "t1", "Acme", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
	assert.Equal(t, "tabela_Verão_Acme_2026-03-09.pdf", name)
}

func TestOpaqueAIResponse(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/pos-venda/analisar-saida", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultado":{"score":0.8}}`))
	})
	c := newTestClient(t, r)

	out, err := c.AnalyzeExit(context.Background(), map[string]string{"propostaId": "p1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"resultado":{"score":0.8}}`, string(out))
}

// ============================================================================
// BENCHMARKS
// ============================================================================

func strptr(s string) *string { return &s }

func TestBenchmarksAreCached(t *testing.T) {
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Get("/api/benchmarks", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		httpx.JSON(w, http.StatusOK, []Benchmark{
			{ID: "b1", Categoria: strptr("Bebidas"), TipoMetrica: "margem_media", ValorBenchmark: 12.5, Unidade: strptr("percentual")},
			{ID: "b2", TipoMetrica: "ticket_medio", ValorBenchmark: 1234.5, Unidade: strptr("reais")},
		})
	})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := cache.NewJSONCache(rdb, "benchmarks", time.Minute)
	c := newTestClient(t, r, WithBenchmarkCache(store))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := c.Benchmarks(context.Background(), BenchmarkFilter{})
			assert.NoError(t, err)
			assert.Len(t, list, 2)
		}()
	}
	wg.Wait()
	_, err := c.Benchmarks(context.Background(), BenchmarkFilter{})
	require.NoError(t, err)
	assert.LessOrEqual(t, hits.Load(), int32(2))

	before := hits.Load()
	require.NoError(t, store.Bump(context.Background()))
	_, err = c.Benchmarks(context.Background(), BenchmarkFilter{})
	require.NoError(t, err)
	assert.Equal(t, before+1, hits.Load())
}

func TestGroupAndFormatBenchmarks(t *testing.T) {
	list := []Benchmark{
		{ID: "b1", Categoria: strptr("Bebidas"), TipoMetrica: "margem_media", ValorBenchmark: 12.5, Unidade: strptr("percentual")},
		{ID: "b2", TipoMetrica: "ticket_medio", ValorBenchmark: 1234.5, Unidade: strptr("reais")},
		{ID: "b3", Categoria: strptr(""), TipoMetrica: "prazo_entrega", ValorBenchmark: 3, Unidade: strptr("dias")},
	}
	groups := GroupByCategory(list)
	require.Len(t, groups, 2)
	assert.Equal(t, "Bebidas", groups[0].Categoria)
	assert.Equal(t, DefaultCategory, groups[1].Categoria)
	assert.Len(t, groups[1].Benchmarks, 2)

	assert.Equal(t, "12.50%", list[0].FormattedValue())
	assert.Equal(t, "R$ 1.234,50", list[1].FormattedValue())
	assert.Equal(t, "3.00 dias", list[2].FormattedValue())
	assert.Equal(t, "Ticket Medio", list[1].MetricLabel())
}
