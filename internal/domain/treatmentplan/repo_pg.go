package treatmentplan

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type planRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &planRepoPG{pool: pool}
}

func (r *planRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	planFrom = `treatment_plans t JOIN patients p ON p.id = t.paciente_id`
	planCols = `t.id, t.empresa_id, t.paciente_id, t.dentista_id, t.orcamento_id, t.titulo, t.descricao, t.status,
	t.progresso, t.created_at, t.updated_at, p.nome`
	itemCols    = `i.id, i.plano_id, i.procedimento_id, i.descricao, i.dente, i.status, i.created_at, i.updated_at`
	sessionCols = `s.id, s.item_id, s.numero, s.data_prevista, s.concluida_em, s.observacoes, s.created_at`
)

var planFilters = map[string]db.FilterConfig{
	"paciente_id":  {Type: db.FilterUUID, Columns: []string{"t.paciente_id"}},
	"dentista_id":  {Type: db.FilterUUID, Columns: []string{"t.dentista_id"}},
	"orcamento_id": {Type: db.FilterUUID, Columns: []string{"t.orcamento_id"}},
	"status":       {Type: db.FilterExact, Columns: []string{"t.status"}},
	"q":            {Type: db.FilterText, Columns: []string{"t.titulo", "p.nome"}},
}

func (r *planRepoPG) Create(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatment_plans (id, empresa_id, paciente_id, dentista_id, orcamento_id, titulo, descricao,
			status, progresso)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		p.ID, p.EmpresaID, p.PacienteID, p.DentistaID, p.OrcamentoID, p.Titulo, p.Descricao,
		p.Status, p.Progresso,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "treatment plan")
}

func (r *planRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Plan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM `+planFrom+` WHERE t.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return p, db.Translate(err, "treatment plan")
}

func (r *planRepoPG) Update(ctx context.Context, p *Plan) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE treatment_plans SET dentista_id=$3, orcamento_id=$4, titulo=$5, descricao=$6, status=$7,
			updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		p.ID, p.EmpresaID, p.DentistaID, p.OrcamentoID, p.Titulo, p.Descricao, p.Status,
	).Scan(&p.UpdatedAt)
	return db.Translate(err, "treatment plan")
}

func (r *planRepoPG) UpdateProgress(ctx context.Context, p *Plan) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE treatment_plans SET progresso=$3, status=$4, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`, p.ID, p.EmpresaID, p.Progresso, p.Status,
	).Scan(&p.UpdatedAt)
	return db.Translate(err, "treatment plan")
}

// Delete relies on ON DELETE CASCADE for items and sessions.
func (r *planRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatment_plans WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "treatment plan")
}

func (r *planRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Plan, int, error) {
	q := db.NewQuery(planFrom, planCols)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, planFilters)
	q.OrderBy("t.created_at DESC, t.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *planRepoPG) LockPlan(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM treatment_plans WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return db.Translate(err, "treatment plan")
}

func (r *planRepoPG) AddItem(ctx context.Context, it *Item) error {
	it.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatment_items (id, plano_id, procedimento_id, descricao, dente, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		it.ID, it.PlanoID, it.ProcedimentoID, it.Descricao, it.Dente, it.Status,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	return db.Translate(err, "treatment item")
}

// GetItem resolves an item through its plan and patient, so items of other
// empresas are not found.
func (r *planRepoPG) GetItem(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Item, error) {
	it, err := scanItem(r.conn(ctx).QueryRow(ctx, `
		SELECT `+itemCols+`
		FROM treatment_items i
		JOIN treatment_plans t ON t.id = i.plano_id
		JOIN patients p ON p.id = t.paciente_id
		WHERE i.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return it, db.Translate(err, "treatment item")
}

func (r *planRepoPG) Items(ctx context.Context, planoID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM treatment_items i WHERE i.plano_id = $1 ORDER BY i.created_at, i.id`, planoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *planRepoPG) UpdateItemStatus(ctx context.Context, it *Item) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE treatment_items SET status=$2, updated_at=NOW() WHERE id = $1
		RETURNING updated_at`, it.ID, it.Status,
	).Scan(&it.UpdatedAt)
	return db.Translate(err, "treatment item")
}

func (r *planRepoPG) AddSessions(ctx context.Context, sessions []*Session) error {
	if len(sessions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range sessions {
		s.ID = uuid.New()
		batch.Queue(`
			INSERT INTO treatment_sessions (id, item_id, numero, data_prevista, observacoes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			s.ID, s.ItemID, s.Numero, s.DataPrevista, s.Observacoes,
		)
	}
	br := r.conn(ctx).SendBatch(ctx, batch)
	defer br.Close()
	for _, s := range sessions {
		if err := br.QueryRow().Scan(&s.CreatedAt); err != nil {
			return db.Translate(err, "treatment session")
		}
	}
	return br.Close()
}

func (r *planRepoPG) Sessions(ctx context.Context, planoID uuid.UUID) ([]*Session, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sessionCols+`
		FROM treatment_sessions s JOIN treatment_items i ON i.id = s.item_id
		WHERE i.plano_id = $1
		ORDER BY s.item_id, s.numero`, planoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.ItemID, &s.Numero, &s.DataPrevista, &s.ConcluidaEm, &s.Observacoes, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func (r *planRepoPG) CompleteSession(ctx context.Context, s *Session) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatment_sessions SET concluida_em=$3, observacoes=COALESCE($4, observacoes)
		WHERE id = $1 AND item_id = $2`, s.ID, s.ItemID, s.ConcluidaEm, s.Observacoes)
	return db.Affected(tag, err, "treatment session")
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.EmpresaID, &p.PacienteID, &p.DentistaID, &p.OrcamentoID, &p.Titulo, &p.Descricao,
		&p.Status, &p.Progresso, &p.CreatedAt, &p.UpdatedAt, &p.PacienteNome)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.PlanoID, &it.ProcedimentoID, &it.Descricao, &it.Dente, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
