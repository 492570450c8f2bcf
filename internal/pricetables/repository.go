package pricetables

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luccagoltzman/ia-b2b/internal/platform/db"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

// ErrNotFound is returned when a table id does not exist.
var ErrNotFound = fmt.Errorf("%w: tabela de produtos", httpx.ErrNotFound)

// Repository persists price tables.
type Repository interface {
	Get(ctx context.Context, id string) (*PriceTable, error)
	List(ctx context.Context, status *Status) ([]PriceTable, error)
	Create(ctx context.Context, t PriceTable) error
	Update(ctx context.Context, t PriceTable) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a Postgres-backed repository. Entries and clients are
// stored as JSONB arrays.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const tableSelect = `SELECT id::text, nome, produtos, clientes, condicoes_pagamento, prazo_entrega, observacoes,
	data_criacao, COALESCE(data_vencimento::text, ''), status FROM tabelas_produtos`

func scanTable(row pgx.Row) (*PriceTable, error) {
	var (
		t                  PriceTable
		produtos, clientes []byte
		status             string
	)
	if err := row.Scan(&t.ID, &t.Nome, &produtos, &clientes, &t.CondicoesPagamento, &t.PrazoEntrega,
		&t.Observacoes, &t.DataCriacao, &t.DataVencimento, &status); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(produtos, &t.Produtos); err != nil {
		return nil, fmt.Errorf("decode entries of %s: %w", t.ID, err)
	}
	if err := json.Unmarshal(clientes, &t.Clientes); err != nil {
		return nil, fmt.Errorf("decode clients of %s: %w", t.ID, err)
	}
	t.Status = Status(status)
	return &t, nil
}

func (r *repository) Get(ctx context.Context, id string) (*PriceTable, error) {
	t, err := scanTable(r.db.QueryRow(ctx, tableSelect+` WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, status *Status) ([]PriceTable, error) {
	query := tableSelect
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY data_criacao DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []PriceTable{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

func encodeLists(t PriceTable) ([]byte, []byte, error) {
	produtos, err := json.Marshal(t.Produtos)
	if err != nil {
		return nil, nil, err
	}
	clientes, err := json.Marshal(t.Clientes)
	if err != nil {
		return nil, nil, err
	}
	return produtos, clientes, nil
}

func (r *repository) Create(ctx context.Context, t PriceTable) error {
	produtos, clientes, err := encodeLists(t)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO tabelas_produtos (id, nome, produtos, clientes, condicoes_pagamento, prazo_entrega,
	observacoes, data_criacao, data_vencimento, status)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::date, $10)`,
		t.ID, t.Nome, produtos, clientes, t.CondicoesPagamento, t.PrazoEntrega, t.Observacoes,
		t.DataCriacao, t.DataVencimento, string(t.Status))
	return err
}

func (r *repository) Update(ctx context.Context, t PriceTable) error {
	produtos, clientes, err := encodeLists(t)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE tabelas_produtos SET nome = $2, produtos = $3, clientes = $4,
	condicoes_pagamento = $5, prazo_entrega = $6, observacoes = $7, data_vencimento = NULLIF($8, '')::date,
	updated_at = now()
WHERE id = $1::uuid`,
		t.ID, t.Nome, produtos, clientes, t.CondicoesPagamento, t.PrazoEntrega, t.Observacoes, t.DataVencimento)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE tabelas_produtos SET status = $2, updated_at = now() WHERE id = $1::uuid`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tabelas_produtos WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
