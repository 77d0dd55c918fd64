package attachment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type attachmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &attachmentRepoPG{pool: pool}
}

func (r *attachmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	attachmentFrom = `attachments f JOIN patients p ON p.id = f.paciente_id`
	attachmentCols = `f.id, f.empresa_id, f.paciente_id, f.nome, f.tipo, f.tamanho, f.chave, f.url, f.sha256, f.descricao, f.created_at`
)

var attachmentFilters = map[string]db.FilterConfig{
	"paciente_id": {Type: db.FilterUUID, Columns: []string{"f.paciente_id"}},
	"tipo":        {Type: db.FilterExact, Columns: []string{"f.tipo"}},
	"q":           {Type: db.FilterText, Columns: []string{"f.nome", "f.descricao"}},
}

func (r *attachmentRepoPG) Create(ctx context.Context, a *Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO attachments (id, empresa_id, paciente_id, nome, tipo, tamanho, chave, url, sha256, descricao)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		a.ID, a.EmpresaID, a.PacienteID, a.Nome, a.Tipo, a.Tamanho, a.Chave, a.URL, a.SHA256, a.Descricao,
	).Scan(&a.CreatedAt)
	return db.Translate(err, "attachment")
}

func (r *attachmentRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Attachment, error) {
	a, err := scanAttachment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+attachmentCols+` FROM `+attachmentFrom+` WHERE f.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return a, db.Translate(err, "attachment")
}

func (r *attachmentRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM attachments WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "attachment")
}

func (r *attachmentRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Attachment, int, error) {
	q := db.NewQuery(attachmentFrom, attachmentCols)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, attachmentFilters)
	q.OrderBy("f.created_at DESC, f.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.EmpresaID, &a.PacienteID, &a.Nome, &a.Tipo, &a.Tamanho, &a.Chave, &a.URL, &a.SHA256, &a.Descricao, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
