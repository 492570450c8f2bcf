package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luccagoltzman/ia-b2b/internal/platform/db"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// ErrNotFound is returned when a visit id does not exist.
var ErrNotFound = fmt.Errorf("%w: visita", httpx.ErrNotFound)

// Repository persists visits and their checkpoints.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (*Visit, error)
	List(ctx context.Context, req ListVisitsRequest) ([]Visit, error)
	Checkpoints(ctx context.Context, id string) ([]shared.Checkpoint, error)
	Delete(ctx context.Context, id string) error
}

// TxRepository exposes the writes that run inside a transaction.
type TxRepository interface {
	Lock(ctx context.Context, id string) (*Visit, error)
	Insert(ctx context.Context, v Visit) error
	Save(ctx context.Context, v Visit) error
	AppendCheckpoint(ctx context.Context, id string, cp shared.Checkpoint) error
}

type PGRepository struct {
	pool *pgxpool.Pool
	q    db.DBTX
	log  shared.CheckpointLog
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, q: pool}
}

func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{q: tx})
	})
}

const visitSelect = `SELECT id::text, cliente, data::text, COALESCE(hora, ''), status, endereco, observacoes, created_at FROM visitas`

func scanVisit(row pgx.Row) (*Visit, error) {
	var (
		v  Visit
		st string
	)
	if err := row.Scan(&v.ID, &v.Cliente, &v.Data, &v.Hora, &st, &v.Endereco, &v.Observacoes, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Status = Status(st)
	return &v, nil
}

func (r *PGRepository) get(ctx context.Context, query, id string) (*Visit, error) {
	v, err := scanVisit(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (*Visit, error) {
	return r.get(ctx, visitSelect+` WHERE id = $1::uuid`, id)
}

func (r *PGRepository) Lock(ctx context.Context, id string) (*Visit, error) {
	return r.get(ctx, visitSelect+` WHERE id = $1::uuid FOR UPDATE`, id)
}

// List returns the agenda ordered by date and time.
func (r *PGRepository) List(ctx context.Context, req ListVisitsRequest) ([]Visit, error) {
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
	if req.From != "" {
		conditions = append(conditions, fmt.Sprintf("data >= $%d::date", argPos))
		args = append(args, req.From)
		argPos++
	}
	if req.To != "" {
		conditions = append(conditions, fmt.Sprintf("data <= $%d::date", argPos))
		args = append(args, req.To)
	}

	query := visitSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY data, hora NULLS LAST"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

func (r *PGRepository) Checkpoints(ctx context.Context, id string) ([]shared.Checkpoint, error) {
	return r.log.List(ctx, r.q, shared.EntityVisit, id)
}

func (r *PGRepository) Insert(ctx context.Context, v Visit) error {
	_, err := r.q.Exec(ctx, `INSERT INTO visitas (id, cliente, data, hora, status, endereco, observacoes, created_at)
VALUES ($1::uuid, $2, $3::date, NULLIF($4, ''), $5, $6, $7, $8)`,
		v.ID, v.Cliente, v.Data, v.Hora, string(v.Status), v.Endereco, v.Observacoes, v.CreatedAt)
	return err
}

func (r *PGRepository) Save(ctx context.Context, v Visit) error {
	tag, err := r.q.Exec(ctx, `UPDATE visitas SET cliente = $2, data = $3::date, hora = NULLIF($4, ''), status = $5,
	endereco = $6, observacoes = $7, updated_at = now()
WHERE id = $1::uuid`,
		v.ID, v.Cliente, v.Data, v.Hora, string(v.Status), v.Endereco, v.Observacoes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) AppendCheckpoint(ctx context.Context, id string, cp shared.Checkpoint) error {
	return r.log.Append(ctx, r.q, shared.EntityVisit, id, cp)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM checkpoints WHERE entity = $1 AND entity_id = $2::uuid`, string(shared.EntityVisit), id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM visitas WHERE id = $1::uuid`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
