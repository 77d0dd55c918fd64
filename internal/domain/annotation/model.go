package annotation

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

// Annotation maps to the annotations table: free-text clinical notes.
type Annotation struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	EmpresaID  tenant.ID  `db:"empresa_id" json:"empresa_id"`
	PacienteID uuid.UUID  `db:"paciente_id" json:"paciente_id"`
	AutorID    *uuid.UUID `db:"autor_id" json:"autor_id,omitempty"`
	Titulo     *string    `db:"titulo" json:"titulo,omitempty"`
	Conteudo   string     `db:"conteudo" json:"conteudo"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
