package empresa

import (
	"time"

	"github.com/odonto/odonto/internal/platform/tenant"
)

// Empresa maps to the empresas table. It is the tenant root.
type Empresa struct {
	ID        tenant.ID `db:"id" json:"id"`
	Nome      string    `db:"nome" json:"nome"`
	CNPJ      *string   `db:"cnpj" json:"cnpj,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Telefone  *string   `db:"telefone" json:"telefone,omitempty"`
	Endereco  *string   `db:"endereco" json:"endereco,omitempty"`
	Ativo     bool      `db:"ativo" json:"ativo"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (e *Empresa) TenantID() (tenant.ID, bool) {
	if e == nil {
		return 0, false
	}
	return e.ID, e.ID.Valid()
}

// UpdateInput holds the fields an admin may change on their own empresa.
type UpdateInput struct {
	Nome     string  `json:"nome"`
	CNPJ     *string `json:"cnpj,omitempty"`
	Email    *string `json:"email,omitempty"`
	Telefone *string `json:"telefone,omitempty"`
	Endereco *string `json:"endereco,omitempty"`
}
