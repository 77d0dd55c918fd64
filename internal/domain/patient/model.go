package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

// Patient maps to the patients table.
type Patient struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	EmpresaID      tenant.ID   `db:"empresa_id" json:"empresa_id"`
	Nome           string      `db:"nome" json:"nome"`
	CPF            *string     `db:"cpf" json:"cpf,omitempty"`
	DataNascimento *civil.Date `db:"data_nascimento" json:"data_nascimento,omitempty"`
	Sexo           *string     `db:"sexo" json:"sexo,omitempty"`
	Telefone       *string     `db:"telefone" json:"telefone,omitempty"`
	Email          *string     `db:"email" json:"email,omitempty"`
	Endereco       *string     `db:"endereco" json:"endereco,omitempty"`
	Convenio       *string     `db:"convenio" json:"convenio,omitempty"`
	Observacoes    *string     `db:"observacoes" json:"observacoes,omitempty"`
	Ativo          bool        `db:"ativo" json:"ativo"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}
