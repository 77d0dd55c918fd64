package anamnesis

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type anamnesisRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &anamnesisRepoPG{pool: pool}
}

func (r *anamnesisRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	anamnesisFrom = `anamneses an JOIN patients p ON p.id = an.paciente_id`
	anamnesisCols = `an.id, an.empresa_id, an.paciente_id, an.respostas, an.alergias, an.medicamentos, an.doencas, an.observacoes, an.created_at, an.updated_at`
)

var anamnesisFilters = map[string]db.FilterConfig{
	"paciente_id": {Type: db.FilterUUID, Columns: []string{"an.paciente_id"}},
	"q":           {Type: db.FilterText, Columns: []string{"an.alergias", "an.medicamentos", "an.doencas", "an.observacoes"}},
}

func (r *anamnesisRepoPG) Create(ctx context.Context, a *Anamnesis) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO anamneses (id, empresa_id, paciente_id, respostas, alergias, medicamentos, doencas, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.EmpresaID, a.PacienteID, a.Respostas, a.Alergias, a.Medicamentos, a.Doencas, a.Observacoes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Translate(err, "anamnesis")
}

func (r *anamnesisRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Anamnesis, error) {
	a, err := scanAnamnesis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+anamnesisCols+` FROM `+anamnesisFrom+` WHERE an.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return a, db.Translate(err, "anamnesis")
}

func (r *anamnesisRepoPG) Update(ctx context.Context, a *Anamnesis) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE anamneses SET paciente_id=$3, respostas=$4, alergias=$5, medicamentos=$6, doencas=$7, observacoes=$8, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		a.ID, a.EmpresaID, a.PacienteID, a.Respostas, a.Alergias, a.Medicamentos, a.Doencas, a.Observacoes,
	).Scan(&a.UpdatedAt)
	return db.Translate(err, "anamnesis")
}

func (r *anamnesisRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM anamneses WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "anamnesis")
}

func (r *anamnesisRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Anamnesis, int, error) {
	q := db.NewQuery(anamnesisFrom, anamnesisCols)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, anamnesisFilters)
	q.OrderBy("an.created_at DESC, an.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Anamnesis{}
	for rows.Next() {
		a, err := scanAnamnesis(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func scanAnamnesis(row pgx.Row) (*Anamnesis, error) {
	var a Anamnesis
	err := row.Scan(&a.ID, &a.EmpresaID, &a.PacienteID, &a.Respostas, &a.Alergias, &a.Medicamentos, &a.Doencas, &a.Observacoes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
