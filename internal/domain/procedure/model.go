package procedure

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

// DefaultDuration is the consultation length assumed when a procedure does
// not specify one or is missing from the catalog.
const DefaultDuration = 30

// Procedure maps to the procedures table: the empresa's price catalog.
type Procedure struct {
	ID             uuid.UUID `db:"id" json:"id"`
	EmpresaID      tenant.ID `db:"empresa_id" json:"empresa_id"`
	Nome           string    `db:"nome" json:"nome"`
	Descricao      *string   `db:"descricao" json:"descricao,omitempty"`
	Categoria      *string   `db:"categoria" json:"categoria,omitempty"`
	Valor          float64   `db:"valor" json:"valor"`
	DuracaoMinutos int       `db:"duracao_minutos" json:"duracao_minutos"`
	Ativo          bool      `db:"ativo" json:"ativo"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
