package usuario

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// Usuario maps to the usuarios table.
type Usuario struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	AuthUserID   *string           `db:"auth_user_id" json:"auth_user_id,omitempty"`
	Email        string            `db:"email" json:"email"`
	Nome         string            `db:"nome" json:"nome"`
	Cargo        string            `db:"cargo" json:"cargo"`
	EmpresaID    tenant.ID         `db:"empresa_id" json:"empresa_id"`
	Ativo        bool              `db:"ativo" json:"ativo"`
	PasswordHash string            `db:"password_hash" json:"-"`
	Permissoes   *auth.Permissions `db:"permissoes" json:"permissoes,omitempty"`
	Telefone     *string           `db:"telefone" json:"telefone,omitempty"`
	CRO          *string           `db:"cro" json:"cro,omitempty"`
	EmpresaNome  string            `json:"empresa_nome,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// Principal converts the row into the authenticated identity.
func (u *Usuario) Principal() *auth.Principal {
	p := &auth.Principal{
		ID:         u.ID,
		Email:      u.Email,
		Nome:       u.Nome,
		Cargo:      u.Cargo,
		EmpresaID:  u.EmpresaID,
		Ativo:      u.Ativo,
		Permissoes: u.Permissoes,
		Empresa:    &auth.EmpresaRef{ID: u.EmpresaID, Nome: u.EmpresaNome},
	}
	if u.AuthUserID != nil {
		p.AuthUserID = *u.AuthUserID
	}
	return p
}

// subjects returns every token subject the principal cache may hold this
// usuario under.
func (u *Usuario) subjects() []string {
	out := []string{u.ID.String()}
	if u.AuthUserID != nil && *u.AuthUserID != "" {
		out = append(out, *u.AuthUserID)
	}
	return out
}

type CreateInput struct {
	Nome       string            `json:"nome"`
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	Cargo      string            `json:"cargo"`
	Telefone   *string           `json:"telefone,omitempty"`
	CRO        *string           `json:"cro,omitempty"`
	Permissoes *auth.Permissions `json:"permissoes,omitempty"`
}

type UpdateInput struct {
	Nome       string            `json:"nome"`
	Email      string            `json:"email"`
	Cargo      string            `json:"cargo"`
	Password   *string           `json:"password,omitempty"`
	Telefone   *string           `json:"telefone,omitempty"`
	CRO        *string           `json:"cro,omitempty"`
	Permissoes *auth.Permissions `json:"permissoes,omitempty"`
}

type StatusInput struct {
	Ativo *bool `json:"ativo"`
}
