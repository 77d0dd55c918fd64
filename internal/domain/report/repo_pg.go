package report

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type reportRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *reportRepoPG) PaidPayments(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]PaymentRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pg.valor, pg.metodo, COALESCE(u.nome, '')
		FROM payments pg
		JOIN patients p ON p.id = pg.paciente_id
		LEFT JOIN budgets b ON b.id = pg.orcamento_id
		LEFT JOIN appointments a ON a.id = b.agendamento_id
		LEFT JOIN usuarios u ON u.id = a.dentista_id
		WHERE p.empresa_id = $1 AND pg.status = 'pago'
			AND pg.data_pagamento >= $2 AND pg.data_pagamento < $3`,
		empresaID, p.From, p.End())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PaymentRow, error) {
		var pr PaymentRow
		err := row.Scan(&pr.Valor, &pr.Metodo, &pr.Profissional)
		return pr, err
	})
}

func (r *reportRepoPG) ApprovedItems(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]ItemRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT COALESCE(pr.nome, bi.descricao), bi.quantidade, bi.valor_unitario
		FROM budget_items bi
		JOIN budgets b ON b.id = bi.orcamento_id
		JOIN patients p ON p.id = b.paciente_id
		LEFT JOIN procedures pr ON pr.id = bi.procedimento_id
		WHERE p.empresa_id = $1 AND b.status = 'aprovado'
			AND b.created_at >= $2 AND b.created_at < $3`,
		empresaID, p.From, p.End())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ItemRow, error) {
		var it ItemRow
		err := row.Scan(&it.Procedimento, &it.Quantidade, &it.ValorUnitario)
		return it, err
	})
}

// Appointments returns every appointment of the period that still occupies
// the agenda, so cancelled ones are left out.
func (r *reportRepoPG) Appointments(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]AppointmentRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.dentista_id, COALESCE(u.nome, ''), a.procedimento_id
		FROM appointments a
		JOIN patients p ON p.id = a.paciente_id
		LEFT JOIN usuarios u ON u.id = a.dentista_id
		WHERE p.empresa_id = $1 AND a.status <> 'cancelado'
			AND a.data_hora >= $2 AND a.data_hora < $3`,
		empresaID, p.From, p.End())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppointmentRow, error) {
		var ar AppointmentRow
		err := row.Scan(&ar.DentistaID, &ar.DentistaNome, &ar.ProcedimentoID)
		return ar, err
	})
}

func (r *reportRepoPG) Budgets(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]BudgetRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT b.status, b.valor_total
		FROM budgets b
		JOIN patients p ON p.id = b.paciente_id
		WHERE p.empresa_id = $1 AND b.created_at >= $2 AND b.created_at < $3`,
		empresaID, p.From, p.End())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (BudgetRow, error) {
		var br BudgetRow
		err := row.Scan(&br.Status, &br.ValorTotal)
		return br, err
	})
}
