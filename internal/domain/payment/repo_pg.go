package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type paymentRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &paymentRepoPG{pool: pool}
}

func (r *paymentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	paymentFrom = `payments pg JOIN patients p ON p.id = pg.paciente_id`
	paymentCols = `pg.id, pg.empresa_id, pg.paciente_id, pg.orcamento_id, pg.valor, pg.metodo, pg.status, pg.parcelas,
	pg.vencimento, pg.data_pagamento, pg.observacoes, pg.created_at, pg.updated_at, p.nome`
)

var paymentFilters = map[string]db.FilterConfig{
	"paciente_id":  {Type: db.FilterUUID, Columns: []string{"pg.paciente_id"}},
	"orcamento_id": {Type: db.FilterUUID, Columns: []string{"pg.orcamento_id"}},
	"metodo":       {Type: db.FilterExact, Columns: []string{"pg.metodo"}},
	"status":       {Type: db.FilterExact, Columns: []string{"pg.status"}},
	"de":           {Type: db.FilterDateFrom, Columns: []string{"pg.data_pagamento"}},
	"ate":          {Type: db.FilterDateTo, Columns: []string{"pg.data_pagamento"}},
	"vence_de":     {Type: db.FilterDateFrom, Columns: []string{"pg.vencimento"}},
	"vence_ate":    {Type: db.FilterDateTo, Columns: []string{"pg.vencimento"}},
	"q":            {Type: db.FilterText, Columns: []string{"p.nome", "pg.observacoes"}},
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payments (id, empresa_id, paciente_id, orcamento_id, valor, metodo, status, parcelas,
			vencimento, data_pagamento, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		p.ID, p.EmpresaID, p.PacienteID, p.OrcamentoID, p.Valor, p.Metodo, p.Status, p.Parcelas,
		p.Vencimento, p.DataPagamento, p.Observacoes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "payment")
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Payment, error) {
	p, err := scanPayment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM `+paymentFrom+` WHERE pg.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return p, db.Translate(err, "payment")
}

func (r *paymentRepoPG) Update(ctx context.Context, p *Payment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE payments SET paciente_id=$3, orcamento_id=$4, valor=$5, metodo=$6, status=$7, parcelas=$8,
			vencimento=$9, data_pagamento=$10, observacoes=$11, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		p.ID, p.EmpresaID, p.PacienteID, p.OrcamentoID, p.Valor, p.Metodo, p.Status, p.Parcelas,
		p.Vencimento, p.DataPagamento, p.Observacoes,
	).Scan(&p.UpdatedAt)
	return db.Translate(err, "payment")
}

func (r *paymentRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM payments WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "payment")
}

func (r *paymentRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Payment, int, error) {
	q := db.NewQuery(paymentFrom, paymentCols)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, paymentFilters)
	q.OrderBy("pg.created_at DESC, pg.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.EmpresaID, &p.PacienteID, &p.OrcamentoID, &p.Valor, &p.Metodo, &p.Status, &p.Parcelas,
		&p.Vencimento, &p.DataPagamento, &p.Observacoes, &p.CreatedAt, &p.UpdatedAt, &p.PacienteNome)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
