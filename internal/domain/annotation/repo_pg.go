package annotation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type annotationRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &annotationRepoPG{pool: pool}
}

func (r *annotationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	annotationFrom = `annotations n JOIN patients p ON p.id = n.paciente_id`
	annotationCols = `n.id, n.empresa_id, n.paciente_id, n.autor_id, n.titulo, n.conteudo, n.created_at, n.updated_at`
)

var annotationFilters = map[string]db.FilterConfig{
	"paciente_id": {Type: db.FilterUUID, Columns: []string{"n.paciente_id"}},
	"autor_id":    {Type: db.FilterUUID, Columns: []string{"n.autor_id"}},
	"q":           {Type: db.FilterText, Columns: []string{"n.titulo", "n.conteudo"}},
}

func (r *annotationRepoPG) Create(ctx context.Context, a *Annotation) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO annotations (id, empresa_id, paciente_id, autor_id, titulo, conteudo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		a.ID, a.EmpresaID, a.PacienteID, a.AutorID, a.Titulo, a.Conteudo,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Translate(err, "annotation")
}

func (r *annotationRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Annotation, error) {
	a, err := scanAnnotation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+annotationCols+` FROM `+annotationFrom+` WHERE n.id = $1 AND p.empresa_id = $2`, id, empresaID))
	return a, db.Translate(err, "annotation")
}

func (r *annotationRepoPG) Update(ctx context.Context, a *Annotation) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE annotations SET paciente_id=$3, autor_id=$4, titulo=$5, conteudo=$6, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		a.ID, a.EmpresaID, a.PacienteID, a.AutorID, a.Titulo, a.Conteudo,
	).Scan(&a.UpdatedAt)
	return db.Translate(err, "annotation")
}

func (r *annotationRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM annotations WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "annotation")
}

func (r *annotationRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Annotation, int, error) {
	q := db.NewQuery(annotationFrom, annotationCols)
	q.Eq("p.empresa_id", empresaID)
	q.ApplyFilters(filters, annotationFilters)
	q.OrderBy("n.created_at DESC, n.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func scanAnnotation(row pgx.Row) (*Annotation, error) {
	var a Annotation
	err := row.Scan(&a.ID, &a.EmpresaID, &a.PacienteID, &a.AutorID, &a.Titulo, &a.Conteudo, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
