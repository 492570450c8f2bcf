package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execRecorder struct {
	queries []string
	args    [][]any
}

func (r *execRecorder) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.queries = append(r.queries, sql)
	r.args = append(r.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *execRecorder) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (r *execRecorder) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func ptr(s string) *string { return &s }

func TestNewCheckpointDropsBlankFields(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	cp := NewCheckpoint("aprovada", "Aprovada", ptr(""), nil, at)

	assert.NotEmpty(t, cp.ID)
	assert.Nil(t, cp.Descricao)
	assert.Nil(t, cp.Usuario)
	assert.Equal(t, time.UTC, cp.Data.Location())
	assert.True(t, cp.Data.Equal(at))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cps := []Checkpoint{
		{ID: "a", Data: base},
		{ID: "b", Data: base.Add(2 * time.Hour)},
		{ID: "c", Data: base.Add(time.Hour)},
	}
	SortNewestFirst(cps)
	assert.Equal(t, []string{"b", "c", "a"}, []string{cps[0].ID, cps[1].ID, cps[2].ID})

	latest, ok := Latest(cps)
	require.True(t, ok)
	assert.Equal(t, "b", latest.ID)

	_, ok = Latest(nil)
	assert.False(t, ok)
}

func TestCheckpointLogAppendValidates(t *testing.T) {
	log := CheckpointLog{}
	rec := &execRecorder{}
	ctx := context.Background()

	require.Error(t, log.Append(ctx, nil, EntityProposal, "id", Checkpoint{ID: "x", Status: "rascunho"}))
	require.Error(t, log.Append(ctx, rec, "", "id", Checkpoint{ID: "x", Status: "rascunho"}))
	require.Error(t, log.Append(ctx, rec, EntityProposal, "id", Checkpoint{Status: "rascunho"}))
	assert.Empty(t, rec.queries)

	cp := NewCheckpoint("enviada", "Enviada", ptr("enviada ao cliente"), ptr("Ana"), time.Now())
	require.NoError(t, log.Append(ctx, rec, EntityProposal, "0b8a9f0e-7d1c-4c55-9a43-3f1c2f1f7a10", cp))
	require.Len(t, rec.queries, 1)
	assert.Contains(t, rec.queries[0], "INSERT INTO checkpoints")
	assert.Equal(t, "proposta", rec.args[0][1])
	assert.Equal(t, "enviada", rec.args[0][3])
}

func TestTitleFromCode(t *testing.T) {
	assert.Equal(t, "Em Analise Diretoria", TitleFromCode("em_analise_diretoria"))
	assert.Equal(t, "Rascunho", TitleFromCode("rascunho"))
	assert.Equal(t, "", TitleFromCode(""))
}
