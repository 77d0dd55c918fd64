package evaluation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type evaluationRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &evaluationRepoPG{pool: pool}
}

func (r *evaluationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	evaluationFrom = `evaluations ev JOIN patients p ON p.id = ev.paciente_id`
	evaluationCols = `ev.id, ev.empresa_id, ev.paciente_id, ev.dentista_id, ev.data, ev.odontograma, ev.diagnostico, ev.observacoes, ev.created_at, ev.updated_at`
)

var evaluationFilters = map[string]db.FilterConfig{
	"paciente_id": {Type: db.FilterUUID, Columns: []string{"ev.paciente_id"}},
	"dentista_id": {Type: db.FilterUUID, Columns: []string{"ev.dentista_id"}},
	"de":          {Type: db.FilterDateFrom, Columns: []string{"ev.data"}},
	"ate":         {Type: db.FilterDateTo, Columns: []string{"ev.data"}},
	"q":           {Type: db.FilterText, Columns: []string{"ev.diagnostico", "ev.observacoes"}},
}

func (r *evaluationRepoPG) Create(ctx context.Context, e *Evaluation) error {
	e.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO evaluations (id, empresa_id, paciente_id, dentista_id, data, odontograma, diagnostico, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		e.ID, e.EmpresaID, e.PacienteID, e.DentistaID, e.Data, e.Odontograma, e.Diagnostico, e.Observacoes,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	return db.Translate(err, "evaluation")
}

func (r *evaluationRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Evaluation, error) {
	e, err := scanEvaluation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+evaluationCols+` FROM `+evaluationFrom+` WHERE ev.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return e, db.Translate(err, "evaluation")
}

func (r *evaluationRepoPG) Update(ctx context.Context, e *Evaluation) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE evaluations SET paciente_id=$3, dentista_id=$4, data=$5, odontograma=$6, diagnostico=$7, observacoes=$8, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		e.ID, e.EmpresaID, e.PacienteID, e.DentistaID, e.Data, e.Odontograma, e.Diagnostico, e.Observacoes,
	).Scan(&e.UpdatedAt)
	return db.Translate(err, "evaluation")
}

func (r *evaluationRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM evaluations WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "evaluation")
}

func (r *evaluationRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Evaluation, int, error) {
	q := db.NewQuery(evaluationFrom, evaluationCols)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, evaluationFilters)
	q.OrderBy("ev.data DESC, ev.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func scanEvaluation(row pgx.Row) (*Evaluation, error) {
	var e Evaluation
	err := row.Scan(&e.ID, &e.EmpresaID, &e.PacienteID, &e.DentistaID, &e.Data, &e.Odontograma, &e.Diagnostico, &e.Observacoes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
