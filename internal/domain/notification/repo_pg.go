package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type notificationRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &notificationRepoPG{pool: pool}
}

func (r *notificationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const notificationCols = `id, empresa_id, usuario_id, paciente_id, tipo, titulo, mensagem, referencia_id,
	lida, lida_em, agendada_para, created_at`

var notificationFilters = map[string]db.FilterConfig{
	"lida":        {Type: db.FilterBool, Columns: []string{"lida"}},
	"tipo":        {Type: db.FilterExact, Columns: []string{"tipo"}},
	"usuario_id":  {Type: db.FilterUUID, Columns: []string{"usuario_id"}},
	"paciente_id": {Type: db.FilterUUID, Columns: []string{"paciente_id"}},
	"de":          {Type: db.FilterDateFrom, Columns: []string{"created_at"}},
	"ate":         {Type: db.FilterDateTo, Columns: []string{"created_at"}},
}

func (r *notificationRepoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notifications (id, empresa_id, usuario_id, paciente_id, tipo, titulo, mensagem,
			referencia_id, agendada_para)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		n.ID, n.EmpresaID, n.UsuarioID, n.PacienteID, n.Tipo, n.Titulo, n.Mensagem,
		n.ReferenciaID, n.AgendadaPara,
	).Scan(&n.CreatedAt)
	return db.Translate(err, "notification")
}

func (r *notificationRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Notification, error) {
	n, err := scanNotification(r.conn(ctx).QueryRow(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE id = $1 AND empresa_id = $2`, id, empresaID))
	return n, db.Translate(err, "notification")
}

func (r *notificationRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Notification, int, error) {
	q := db.NewQuery("notifications", notificationCols)
	q.Eq("empresa_id", empresaID)
	q.ApplyFilters(filters, notificationFilters)
	q.OrderBy("created_at DESC, id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *notificationRepoPG) MarkRead(ctx context.Context, n *Notification) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE notifications SET lida = TRUE, lida_em = COALESCE(lida_em, NOW())
		WHERE id = $1 AND empresa_id = $2
		RETURNING lida, lida_em`, n.ID, n.EmpresaID,
	).Scan(&n.Lida, &n.LidaEm)
	return db.Translate(err, "notification")
}

// MarkAllRead marks the empresa's unread notifications as read. A non-nil
// usuarioID limits it to that usuario's own and broadcast notifications.
func (r *notificationRepoPG) MarkAllRead(ctx context.Context, empresaID tenant.ID, usuarioID *uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE notifications SET lida = TRUE, lida_em = NOW()
		WHERE empresa_id = $1 AND lida = FALSE
			AND ($2::uuid IS NULL OR usuario_id IS NULL OR usuario_id = $2)`, empresaID, usuarioID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *notificationRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "notification")
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.EmpresaID, &n.UsuarioID, &n.PacienteID, &n.Tipo, &n.Titulo, &n.Mensagem,
		&n.ReferenciaID, &n.Lida, &n.LidaEm, &n.AgendadaPara, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
