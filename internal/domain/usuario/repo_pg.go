package usuario

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type usuarioRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &usuarioRepoPG{pool: pool}
}

func (r *usuarioRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const usuarioCols = `u.id, u.auth_user_id, u.email, u.nome, u.cargo, u.empresa_id, u.ativo,
	u.password_hash, u.permissoes, u.telefone, u.cro, e.nome, u.created_at, u.updated_at`

const usuarioFrom = `usuarios u JOIN empresas e ON e.id = u.empresa_id`

var usuarioFilters = map[string]db.FilterConfig{
	"q":     {Type: db.FilterText, Columns: []string{"u.nome", "u.email"}},
	"cargo": {Type: db.FilterExact, Columns: []string{"u.cargo"}},
	"ativo": {Type: db.FilterBool, Columns: []string{"u.ativo"}},
}

func (r *usuarioRepoPG) Create(ctx context.Context, u *Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO usuarios (id, auth_user_id, email, nome, cargo, empresa_id, ativo, password_hash, permissoes, telefone, cro)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11)
		RETURNING created_at, updated_at`,
		u.ID, u.AuthUserID, u.Email, u.Nome, u.Cargo, u.EmpresaID, u.Ativo,
		u.PasswordHash, u.Permissoes, u.Telefone, u.CRO,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return db.Translate(err, "usuario")
}

func (r *usuarioRepoPG) GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Usuario, error) {
	u, err := scanUsuario(r.conn(ctx).QueryRow(ctx,
		`SELECT `+usuarioCols+` FROM `+usuarioFrom+` WHERE u.id = $1 AND u.empresa_id = $2`, id, empresaID))
	return u, db.Translate(err, "usuario")
}

// GetBySubject matches the external subject first and falls back to the
// usuario id, which is the subject of locally issued tokens.
func (r *usuarioRepoPG) GetBySubject(ctx context.Context, subject string) (*Usuario, error) {
	u, err := scanUsuario(r.conn(ctx).QueryRow(ctx,
		`SELECT `+usuarioCols+` FROM `+usuarioFrom+`
		WHERE u.auth_user_id = $1 OR u.id::text = $1
		ORDER BY (u.auth_user_id = $1) DESC NULLS LAST
		LIMIT 1`, subject))
	return u, db.Translate(err, "usuario")
}

func (r *usuarioRepoPG) GetByEmail(ctx context.Context, email string) (*Usuario, error) {
	u, err := scanUsuario(r.conn(ctx).QueryRow(ctx,
		`SELECT `+usuarioCols+` FROM `+usuarioFrom+` WHERE lower(u.email) = lower($1)`, email))
	return u, db.Translate(err, "usuario")
}

func (r *usuarioRepoPG) BindSubject(ctx context.Context, id uuid.UUID, subject string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE usuarios SET auth_user_id = $2, updated_at = NOW() WHERE id = $1`, id, subject)
	return db.Affected(tag, err, "usuario")
}

func (r *usuarioRepoPG) Update(ctx context.Context, u *Usuario) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE usuarios SET email=$3, nome=$4, cargo=$5, password_hash=NULLIF($6, ''), permissoes=$7,
			telefone=$8, cro=$9, updated_at=NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING updated_at`,
		u.ID, u.EmpresaID, u.Email, u.Nome, u.Cargo, u.PasswordHash, u.Permissoes, u.Telefone, u.CRO,
	).Scan(&u.UpdatedAt)
	return db.Translate(err, "usuario")
}

func (r *usuarioRepoPG) SetStatus(ctx context.Context, id uuid.UUID, empresaID tenant.ID, ativo bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE usuarios SET ativo = $3, updated_at = NOW() WHERE id = $1 AND empresa_id = $2`, id, empresaID, ativo)
	return db.Affected(tag, err, "usuario")
}

func (r *usuarioRepoPG) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM usuarios WHERE id = $1 AND empresa_id = $2`, id, empresaID)
	return db.Affected(tag, err, "usuario")
}

func (r *usuarioRepoPG) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Usuario, int, error) {
	q := db.NewQuery(usuarioFrom, usuarioCols)
	q.Eq("u.empresa_id", empresaID)
	q.ApplyFilters(filters, usuarioFilters)
	q.OrderBy("u.nome, u.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Usuario{}
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

func scanUsuario(row pgx.Row) (*Usuario, error) {
	var u Usuario
	var hash *string
	err := row.Scan(&u.ID, &u.AuthUserID, &u.Email, &u.Nome, &u.Cargo, &u.EmpresaID, &u.Ativo,
		&hash, &u.Permissoes, &u.Telefone, &u.CRO, &u.EmpresaNome, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	return &u, nil
}
