package followup

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type followupRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &followupRepoPG{pool: pool}
}

func (r *followupRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	followupFrom = `followups r JOIN patients p ON p.id = r.paciente_id`
	followupCols = `r.id, r.empresa_id, r.paciente_id, r.agendamento_id, r.data_prevista, r.motivo, r.status,
	r.observacoes, r.created_at, r.updated_at`
)

var followupFilters = map[string]db.FilterConfig{
	"paciente_id":    {Type: db.FilterUUID, Columns: []string{"r.paciente_id"}},
	"agendamento_id": {Type: db.FilterUUID, Columns: []string{"r.agendamento_id"}},
	"status":         {Type: db.FilterExact, Columns: []string{"r.status"}},
	"de":             {Type: db.FilterDateFrom, Columns: []string{"r.data_prevista"}},
	"ate":            {Type: db.FilterDateTo, Columns: []string{"r.data_prevista"}},
	"q":              {Type: db.FilterText, Columns: []string{"p.nome", "r.motivo"}},
}

func (r *followupRepoPG) Create(ctx context.Context, f *Followup) error {
	f.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO followups (id, empresa_id, paciente_id, agendamento_id, data_prevista, motivo, status, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		f.ID, f.EmpresaID, f.PacienteID, f.AgendamentoID, f.DataPrevista, f.Motivo, f.Status, f.Observacoes,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return db.Translate(err, "followup")
}

func (r *followupRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Followup, error) {
	f, err := scanFollowup(r.conn(ctx).QueryRow(ctx,
		`SELECT `+followupCols+`, p.nome FROM `+followupFrom+` WHERE r.id = $1 AND p.empresa_id = $2`,
		id, empresaID))
	return f, db.Translate(err, "followup")
}

func (r *followupRepoPG) Update(ctx context.Context, f *Followup) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE followups SET paciente_id=$3, agendamento_id=$4, data_prevista=$5, motivo=$6, status=$7,
			observacoes=$8, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		f.ID, f.EmpresaID, f.PacienteID, f.AgendamentoID, f.DataPrevista, f.Motivo, f.Status, f.Observacoes,
	).Scan(&f.UpdatedAt)
	return db.Translate(err, "followup")
}

func (r *followupRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM followups WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "followup")
}

// List leaves PacienteNome empty; the service resolves names for the page.
func (r *followupRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Followup, int, error) {
	q := db.NewQuery(followupFrom, followupCols+`, ''`)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, followupFilters)
	q.OrderBy("r.data_prevista, r.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Followup{}
	for rows.Next() {
		f, err := scanFollowup(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}

func scanFollowup(row pgx.Row) (*Followup, error) {
	var f Followup
	err := row.Scan(&f.ID, &f.EmpresaID, &f.PacienteID, &f.AgendamentoID, &f.DataPrevista, &f.Motivo, &f.Status,
		&f.Observacoes, &f.CreatedAt, &f.UpdatedAt, &f.PacienteNome)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
