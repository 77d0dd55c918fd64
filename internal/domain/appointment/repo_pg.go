package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

// Reads go through the owning patient so a row is only visible to the
// patient's empresa.
const (
	appointmentFrom = `appointments a JOIN patients p ON p.id = a.paciente_id`
	appointmentCols = `a.id, a.empresa_id, a.paciente_id, a.dentista_id, a.procedimento_id, a.data_hora,
	a.duracao_minutos, a.status, a.observacoes, a.created_at, a.updated_at`
)

var appointmentFilters = map[string]db.FilterConfig{
	"paciente_id":     {Type: db.FilterUUID, Columns: []string{"a.paciente_id"}},
	"dentista_id":     {Type: db.FilterUUID, Columns: []string{"a.dentista_id"}},
	"procedimento_id": {Type: db.FilterUUID, Columns: []string{"a.procedimento_id"}},
	"status":          {Type: db.FilterExact, Columns: []string{"a.status"}},
	"de":              {Type: db.FilterDateFrom, Columns: []string{"a.data_hora"}},
	"ate":             {Type: db.FilterDateTo, Columns: []string{"a.data_hora"}},
	"q":               {Type: db.FilterText, Columns: []string{"p.nome", "a.observacoes"}},
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, empresa_id, paciente_id, dentista_id, procedimento_id, data_hora,
			duracao_minutos, status, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		a.ID, a.EmpresaID, a.PacienteID, a.DentistaID, a.ProcedimentoID, a.DataHora,
		a.DuracaoMinutos, a.Status, a.Observacoes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Translate(err, "appointment")
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+`, p.nome FROM `+appointmentFrom+` WHERE a.id = $1 AND p.empresa_id = $2`,
		id, empresaID))
	return a, db.Translate(err, "appointment")
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET paciente_id=$3, dentista_id=$4, procedimento_id=$5, data_hora=$6,
			duracao_minutos=$7, status=$8, observacoes=$9, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		a.ID, a.EmpresaID, a.PacienteID, a.DentistaID, a.ProcedimentoID, a.DataHora,
		a.DuracaoMinutos, a.Status, a.Observacoes,
	).Scan(&a.UpdatedAt)
	return db.Translate(err, "appointment")
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET status=$3, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`, a.ID, a.EmpresaID, a.Status,
	).Scan(&a.UpdatedAt)
	return db.Translate(err, "appointment")
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "appointment")
}

// List leaves PacienteNome empty; the service resolves names for the page.
func (r *appointmentRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Appointment, int, error) {
	q := db.NewQuery(appointmentFrom, appointmentCols+`, ''`)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, appointmentFilters)
	q.OrderBy("a.data_hora, a.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.EmpresaID, &a.PacienteID, &a.DentistaID, &a.ProcedimentoID, &a.DataHora,
		&a.DuracaoMinutos, &a.Status, &a.Observacoes, &a.CreatedAt, &a.UpdatedAt, &a.PacienteNome)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
