package subscription

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type subscriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &subscriptionRepoPG{pool: pool}
}

func (r *subscriptionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const subCols = `id, empresa_id, plano, status, valor_mensal, inicio, fim, cancelada_em, created_at, updated_at`

func (r *subscriptionRepoPG) Get(ctx context.Context, empresaID tenant.ID) (*Subscription, error) {
	s, err := scanSubscription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+subCols+` FROM subscriptions WHERE empresa_id = $1`, empresaID))
	return s, db.Translate(err, "subscription")
}

func (r *subscriptionRepoPG) Lock(ctx context.Context, empresaID tenant.ID) (*Subscription, error) {
	s, err := scanSubscription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+subCols+` FROM subscriptions WHERE empresa_id = $1 FOR UPDATE`, empresaID))
	return s, db.Translate(err, "subscription")
}

// Upsert relies on the unique empresa_id to keep a single row per empresa.
func (r *subscriptionRepoPG) Upsert(ctx context.Context, s *Subscription) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO subscriptions (empresa_id, plano, status, valor_mensal, inicio, fim, cancelada_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (empresa_id) DO UPDATE SET
			plano = EXCLUDED.plano, status = EXCLUDED.status, valor_mensal = EXCLUDED.valor_mensal,
			inicio = EXCLUDED.inicio, fim = EXCLUDED.fim, cancelada_em = EXCLUDED.cancelada_em,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		s.EmpresaID, s.Plano, s.Status, s.ValorMensal, s.Inicio, s.Fim, s.CanceladaEm,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return db.Translate(err, "subscription")
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.EmpresaID, &s.Plano, &s.Status, &s.ValorMensal, &s.Inicio, &s.Fim,
		&s.CanceladaEm, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
