package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, empresa_id, nome, cpf, data_nascimento, sexo, telefone, email, endereco,
	convenio, observacoes, ativo, created_at, updated_at`

var patientFilters = map[string]db.FilterConfig{
	"q":        {Type: db.FilterText, Columns: []string{"nome", "cpf", "telefone", "email"}},
	"nome":     {Type: db.FilterText, Columns: []string{"nome"}},
	"cpf":      {Type: db.FilterExact, Columns: []string{"cpf"}},
	"convenio": {Type: db.FilterText, Columns: []string{"convenio"}},
	"ativo":    {Type: db.FilterBool, Columns: []string{"ativo"}},
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, empresa_id, nome, cpf, data_nascimento, sexo, telefone, email, endereco,
			convenio, observacoes, ativo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		p.ID, p.EmpresaID, p.Nome, p.CPF, p.DataNascimento, p.Sexo, p.Telefone, p.Email, p.Endereco,
		p.Convenio, p.Observacoes, p.Ativo,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1 AND empresa_id = $2`, id, empresaID))
	return p, db.Translate(err, "patient")
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET nome=$3, cpf=$4, data_nascimento=$5, sexo=$6, telefone=$7, email=$8,
			endereco=$9, convenio=$10, observacoes=$11, ativo=$12, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		p.ID, p.EmpresaID, p.Nome, p.CPF, p.DataNascimento, p.Sexo, p.Telefone, p.Email,
		p.Endereco, p.Convenio, p.Observacoes, p.Ativo,
	).Scan(&p.UpdatedAt)
	return db.Translate(err, "patient")
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "patient")
}

func (r *patientRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Patient, int, error) {
	q := db.NewQuery("patients", patientCols)
	q.Eq("empresa_id", empresaID)
	q.ApplyFilters(filters, patientFilters)
	q.OrderBy("nome, id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) EmpresaOf(ctx context.Context, id uuid.UUID) (tenant.ID, error) {
	var empresaID tenant.ID
	err := r.conn(ctx).QueryRow(ctx, `SELECT empresa_id FROM patients WHERE id = $1`, id).Scan(&empresaID)
	return empresaID, db.Translate(err, "patient")
}

func (r *patientRepoPG) Names(ctx context.Context, empresaID tenant.ID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, nome FROM patients WHERE empresa_id = $1 AND id = ANY($2)`, empresaID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var nome string
		if err := rows.Scan(&id, &nome); err != nil {
			return nil, err
		}
		out[id] = nome
	}
	return out, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.EmpresaID, &p.Nome, &p.CPF, &p.DataNascimento, &p.Sexo, &p.Telefone,
		&p.Email, &p.Endereco, &p.Convenio, &p.Observacoes, &p.Ativo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
