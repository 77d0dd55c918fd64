package empresa

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type empresaRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &empresaRepoPG{pool: pool}
}

func (r *empresaRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const empresaCols = `id, nome, cnpj, email, telefone, endereco, ativo, created_at, updated_at`

func (r *empresaRepoPG) Create(ctx context.Context, e *Empresa) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO empresas (nome, cnpj, email, telefone, endereco, ativo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		e.Nome, e.CNPJ, e.Email, e.Telefone, e.Endereco, e.Ativo,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return db.Translate(err, "empresa")
}

func (r *empresaRepoPG) GetByID(ctx context.Context, id tenant.ID) (*Empresa, error) {
	e, err := scanEmpresa(r.conn(ctx).QueryRow(ctx, `SELECT `+empresaCols+` FROM empresas WHERE id = $1`, id))
	return e, db.Translate(err, "empresa")
}

// First returns the oldest active empresa. Auto-provisioned principals are
// bound to it.
func (r *empresaRepoPG) First(ctx context.Context) (*Empresa, error) {
	e, err := scanEmpresa(r.conn(ctx).QueryRow(ctx,
		`SELECT `+empresaCols+` FROM empresas WHERE ativo ORDER BY id LIMIT 1`))
	return e, db.Translate(err, "empresa")
}

func (r *empresaRepoPG) Update(ctx context.Context, e *Empresa) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE empresas SET nome=$2, cnpj=$3, email=$4, telefone=$5, endereco=$6, ativo=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.Nome, e.CNPJ, e.Email, e.Telefone, e.Endereco, e.Ativo,
	).Scan(&e.UpdatedAt)
	return db.Translate(err, "empresa")
}

func (r *empresaRepoPG) List(ctx context.Context, limit, offset int) ([]*Empresa, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM empresas`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+empresaCols+` FROM empresas ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Empresa{}
	for rows.Next() {
		e, err := scanEmpresa(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func scanEmpresa(row pgx.Row) (*Empresa, error) {
	var e Empresa
	err := row.Scan(&e.ID, &e.Nome, &e.CNPJ, &e.Email, &e.Telefone, &e.Endereco, &e.Ativo, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
