package budget

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type budgetRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &budgetRepoPG{pool: pool}
}

func (r *budgetRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	budgetFrom = `budgets b JOIN patients p ON p.id = b.paciente_id`
	budgetCols = `b.id, b.empresa_id, b.paciente_id, b.agendamento_id, b.dentista_id, b.status, b.valor_total,
	b.desconto, b.validade, b.observacoes, b.created_at, b.updated_at, p.nome`
	itemCols = `id, orcamento_id, procedimento_id, descricao, dente, quantidade, valor_unitario, created_at`
)

var budgetFilters = map[string]db.FilterConfig{
	"paciente_id":    {Type: db.FilterUUID, Columns: []string{"b.paciente_id"}},
	"dentista_id":    {Type: db.FilterUUID, Columns: []string{"b.dentista_id"}},
	"agendamento_id": {Type: db.FilterUUID, Columns: []string{"b.agendamento_id"}},
	"status":         {Type: db.FilterExact, Columns: []string{"b.status"}},
	"de":             {Type: db.FilterDateFrom, Columns: []string{"b.created_at"}},
	"ate":            {Type: db.FilterDateTo, Columns: []string{"b.created_at"}},
	"q":              {Type: db.FilterText, Columns: []string{"p.nome", "b.observacoes"}},
}

func (r *budgetRepoPG) Create(ctx context.Context, b *Budget) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO budgets (id, empresa_id, paciente_id, agendamento_id, dentista_id, status, valor_total,
			desconto, validade, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		b.ID, b.EmpresaID, b.PacienteID, b.AgendamentoID, b.DentistaID, b.Status, b.ValorTotal,
		b.Desconto, b.Validade, b.Observacoes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return db.Translate(err, "budget")
}

func (r *budgetRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Budget, error) {
	b, err := scanBudget(r.conn(ctx).QueryRow(ctx,
		`SELECT `+budgetCols+` FROM `+budgetFrom+` WHERE b.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return b, db.Translate(err, "budget")
}

func (r *budgetRepoPG) Update(ctx context.Context, b *Budget) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE budgets SET agendamento_id=$3, dentista_id=$4, status=$5, valor_total=$6, desconto=$7,
			validade=$8, observacoes=$9, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		b.ID, b.EmpresaID, b.AgendamentoID, b.DentistaID, b.Status, b.ValorTotal, b.Desconto,
		b.Validade, b.Observacoes,
	).Scan(&b.UpdatedAt)
	return db.Translate(err, "budget")
}

func (r *budgetRepoPG) UpdateStatus(ctx context.Context, b *Budget) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE budgets SET status=$3, updated_at=NOW() WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`, b.ID, b.EmpresaID, b.Status,
	).Scan(&b.UpdatedAt)
	return db.Translate(err, "budget")
}

func (r *budgetRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "budget")
}

func (r *budgetRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Budget, int, error) {
	q := db.NewQuery(budgetFrom, budgetCols)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, budgetFilters)
	q.OrderBy("b.created_at DESC, b.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

// AddItems inserts the items with a single batch round trip.
func (r *budgetRepoPG) AddItems(ctx context.Context, orcamentoID uuid.UUID, items []*Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		it.ID = uuid.New()
		it.OrcamentoID = orcamentoID
		batch.Queue(`
			INSERT INTO budget_items (id, orcamento_id, procedimento_id, descricao, dente, quantidade, valor_unitario)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at`,
			it.ID, it.OrcamentoID, it.ProcedimentoID, it.Descricao, it.Dente, it.Quantidade, it.ValorUnitario,
		)
	}
	br := r.conn(ctx).SendBatch(ctx, batch)
	defer br.Close()
	for _, it := range items {
		if err := br.QueryRow().Scan(&it.CreatedAt); err != nil {
			return db.Translate(err, "budget item")
		}
	}
	return br.Close()
}

func (r *budgetRepoPG) Items(ctx context.Context, orcamentoID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM budget_items WHERE orcamento_id = $1 ORDER BY created_at, id`, orcamentoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrcamentoID, &it.ProcedimentoID, &it.Descricao, &it.Dente,
			&it.Quantidade, &it.ValorUnitario, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *budgetRepoPG) DeleteItems(ctx context.Context, orcamentoID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM budget_items WHERE orcamento_id = $1`, orcamentoID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanBudget(row pgx.Row) (*Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.EmpresaID, &b.PacienteID, &b.AgendamentoID, &b.DentistaID, &b.Status,
		&b.ValorTotal, &b.Desconto, &b.Validade, &b.Observacoes, &b.CreatedAt, &b.UpdatedAt, &b.PacienteNome)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
