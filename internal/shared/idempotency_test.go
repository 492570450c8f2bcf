package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

// keyTable mimics the unique (key, scope) constraint of idempotency_keys.
type keyTable struct {
	claimed map[string]bool
	last    []any
}

func (k *keyTable) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	k.last = args
	if len(args) == 3 {
		id := args[0].(string) + "|" + args[1].(string)
		if k.claimed[id] {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		}
		k.claimed[id] = true
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	if len(args) == 2 {
		delete(k.claimed, args[0].(string)+"|"+args[1].(string))
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (k *keyTable) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (k *keyTable) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestIdempotencyStoreRejectsReplay(t *testing.T) {
	table := &keyTable{claimed: map[string]bool{}}
	store := NewIdempotencyStore(table)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "k1", "tabela:t1"))
	err := store.CheckAndInsert(ctx, "k1", "tabela:t1")
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	// Same key under another table is a different request.
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "tabela:t2"))

	require.NoError(t, store.Delete(ctx, "k1", "tabela:t1"))
	assert.NoError(t, store.CheckAndInsert(ctx, "k1", "tabela:t1"))
}

func TestIdempotencyStoreValidatesInput(t *testing.T) {
	store := NewIdempotencyStore(&keyTable{claimed: map[string]bool{}})
	ctx := context.Background()
	assert.Error(t, store.CheckAndInsert(ctx, "", "scope"))
	assert.Error(t, store.CheckAndInsert(ctx, "key", ""))
	assert.Error(t, store.Delete(ctx, "", "scope"))

	var nilStore *IdempotencyStore
	assert.Error(t, nilStore.CheckAndInsert(ctx, "k", "s"))
	assert.NoError(t, nilStore.Cleanup(ctx, time.Hour))
}

func TestIdempotencyCleanupUsesRetention(t *testing.T) {
	table := &keyTable{claimed: map[string]bool{}}
	store := NewIdempotencyStore(table)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Cleanup(context.Background(), 48*time.Hour))
	require.Len(t, table.last, 1)
	assert.Equal(t, now.Add(-48*time.Hour), table.last[0])
}
