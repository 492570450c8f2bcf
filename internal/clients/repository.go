package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luccagoltzman/ia-b2b/internal/platform/db"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

// ErrNotFound is returned when a client id does not exist.
var ErrNotFound = fmt.Errorf("%w: cliente", httpx.ErrNotFound)

// Repository persists address book entries.
type Repository interface {
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, c Client) error
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const clientColumns = `id::text, nome, email, telefone, empresa, cnpj, endereco, numero,
	bairro, cidade, estado, cep, inscricao_estadual, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Nome, &c.Email, &c.Telefone, &c.Empresa, &c.CNPJ, &c.Endereco, &c.Numero,
		&c.Bairro, &c.Cidade, &c.Estado, &c.CEP, &c.InscricaoEstadual, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, id string) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if search := strings.TrimSpace(req.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(nome ILIKE $%d OR empresa ILIKE $%d OR cnpj ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clientes "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM clientes %s ORDER BY nome LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) error {
	_, err := r.db.Exec(ctx, `INSERT INTO clientes (id, nome, email, telefone, empresa, cnpj, endereco, numero,
	bairro, cidade, estado, cep, inscricao_estadual, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		c.ID, c.Nome, c.Email, c.Telefone, c.Empresa, c.CNPJ, c.Endereco, c.Numero,
		c.Bairro, c.Cidade, c.Estado, c.CEP, c.InscricaoEstadual, c.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.db.Exec(ctx, `UPDATE clientes SET nome = $2, email = $3, telefone = $4, empresa = $5, cnpj = $6,
	endereco = $7, numero = $8, bairro = $9, cidade = $10, estado = $11, cep = $12, inscricao_estadual = $13,
	updated_at = $14
WHERE id = $1::uuid`,
		c.ID, c.Nome, c.Email, c.Telefone, c.Empresa, c.CNPJ, c.Endereco, c.Numero,
		c.Bairro, c.Cidade, c.Estado, c.CEP, c.InscricaoEstadual, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clientes WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
