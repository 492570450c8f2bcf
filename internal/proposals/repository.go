package proposals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luccagoltzman/ia-b2b/internal/platform/db"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// ErrNotFound is returned when a proposal id does not exist.
var ErrNotFound = fmt.Errorf("%w: proposta", httpx.ErrNotFound)

// Repository persists proposals and their checkpoints.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (*Proposal, error)
	List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error)
	Checkpoints(ctx context.Context, id string) ([]shared.Checkpoint, error)
	Delete(ctx context.Context, id string) error
}

// TxRepository exposes the writes that run inside a transaction.
type TxRepository interface {
	Lock(ctx context.Context, id string) (*Proposal, error)
	Insert(ctx context.Context, p Proposal) error
	Save(ctx context.Context, p Proposal) error
	AppendCheckpoint(ctx context.Context, id string, cp shared.Checkpoint) error
}

// PGRepository stores the proposal body as JSONB next to the columns used
// for filtering.
type PGRepository struct {
	pool *pgxpool.Pool
	q    db.DBTX
	log  shared.CheckpointLog
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, q: pool}
}

// WithTx runs fn in a read-committed transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{q: tx})
	})
}

const proposalSelect = `SELECT dados, id::text, status, valor::float8, data_criacao FROM propostas`

func scanProposal(row pgx.Row) (*Proposal, error) {
	var (
		raw []byte
		p   Proposal
		id  string
		st  string
	)
	if err := row.Scan(&raw, &id, &st, &p.Valor, &p.DataCriacao); err != nil {
		return nil, err
	}
	valor, created := p.Valor, p.DataCriacao
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode proposal %s: %w", id, err)
	}
	p.ID, p.Status, p.Valor, p.DataCriacao = id, Status(st), valor, created
	return &p, nil
}

func (r *PGRepository) get(ctx context.Context, query, id string) (*Proposal, error) {
	p, err := scanProposal(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (*Proposal, error) {
	return r.get(ctx, proposalSelect+` WHERE id = $1::uuid`, id)
}

// Lock reads a proposal and holds a row lock until the transaction ends.
func (r *PGRepository) Lock(ctx context.Context, id string) (*Proposal, error) {
	return r.get(ctx, proposalSelect+` WHERE id = $1::uuid FOR UPDATE`, id)
}

func (r *PGRepository) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if cliente := strings.TrimSpace(req.Cliente); cliente != "" {
		conditions = append(conditions, fmt.Sprintf("cliente ILIKE $%d", argPos))
		args = append(args, "%"+cliente+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM propostas"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("%s%s ORDER BY data_criacao DESC LIMIT $%d OFFSET $%d", proposalSelect, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

func (r *PGRepository) Checkpoints(ctx context.Context, id string) ([]shared.Checkpoint, error) {
	return r.log.List(ctx, r.q, shared.EntityProposal, id)
}

func encodeBody(p Proposal) ([]byte, error) {
	p.Checkpoints = nil
	return json.Marshal(p)
}

func (r *PGRepository) Insert(ctx context.Context, p Proposal) error {
	body, err := encodeBody(p)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `INSERT INTO propostas (id, cliente, status, valor, tabela_id, data_criacao, data_vencimento, dados)
VALUES ($1::uuid, $2, $3, $4, NULLIF($5, '')::uuid, $6, NULLIF($7, '')::date, $8)`,
		p.ID, p.Cliente, string(p.Status), p.Valor, p.TabelaID, p.DataCriacao, p.DataVencimento, body)
	return err
}

func (r *PGRepository) Save(ctx context.Context, p Proposal) error {
	body, err := encodeBody(p)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `UPDATE propostas SET cliente = $2, status = $3, valor = $4,
	data_vencimento = NULLIF($5, '')::date, dados = $6, updated_at = now()
WHERE id = $1::uuid`,
		p.ID, p.Cliente, string(p.Status), p.Valor, p.DataVencimento, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) AppendCheckpoint(ctx context.Context, id string, cp shared.Checkpoint) error {
	return r.log.Append(ctx, r.q, shared.EntityProposal, id, cp)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM checkpoints WHERE entity = $1 AND entity_id = $2::uuid`, string(shared.EntityProposal), id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM propostas WHERE id = $1::uuid`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
