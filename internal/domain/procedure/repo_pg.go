package procedure

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type procedureRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &procedureRepoPG{pool: pool}
}

func (r *procedureRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const procedureCols = `id, empresa_id, nome, descricao, categoria, valor, duracao_minutos, ativo, created_at, updated_at`

var procedureFilters = map[string]db.FilterConfig{
	"q":         {Type: db.FilterText, Columns: []string{"nome", "descricao"}},
	"categoria": {Type: db.FilterExact, Columns: []string{"categoria"}},
	"ativo":     {Type: db.FilterBool, Columns: []string{"ativo"}},
}

func (r *procedureRepoPG) Create(ctx context.Context, p *Procedure) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO procedures (id, empresa_id, nome, descricao, categoria, valor, duracao_minutos, ativo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.EmpresaID, p.Nome, p.Descricao, p.Categoria, p.Valor, p.DuracaoMinutos, p.Ativo,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "procedure")
}

func (r *procedureRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Procedure, error) {
	p, err := scanProcedure(r.conn(ctx).QueryRow(ctx,
		`SELECT `+procedureCols+` FROM procedures WHERE id = $1 AND empresa_id = $2`, id, empresaID))
	return p, db.Translate(err, "procedure")
}

func (r *procedureRepoPG) Update(ctx context.Context, p *Procedure) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE procedures SET nome=$3, descricao=$4, categoria=$5, valor=$6, duracao_minutos=$7, ativo=$8, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		p.ID, p.EmpresaID, p.Nome, p.Descricao, p.Categoria, p.Valor, p.DuracaoMinutos, p.Ativo,
	).Scan(&p.UpdatedAt)
	return db.Translate(err, "procedure")
}

func (r *procedureRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM procedures WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "procedure")
}

func (r *procedureRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Procedure, int, error) {
	q := db.NewQuery("procedures", procedureCols)
	q.Eq("empresa_id", empresaID)
	q.ApplyFilters(filters, procedureFilters)
	q.OrderBy("nome, id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *procedureRepoPG) All(ctx context.Context, empresaID tenant.ID) ([]*Procedure, error) {
	q := db.NewQuery("procedures", procedureCols)
	q.Eq("empresa_id", empresaID)
	q.OrderBy("nome, id")
	rows, err := r.conn(ctx).Query(ctx, q.AllSQL(), q.CountArgs()...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*Procedure, error) {
	defer rows.Close()
	items := []*Procedure{}
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.EmpresaID, &p.Nome, &p.Descricao, &p.Categoria, &p.Valor, &p.DuracaoMinutos,
		&p.Ativo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
