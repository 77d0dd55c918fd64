package anamnesis

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

// Anamnesis maps to the anamneses table. Respostas holds the questionnaire
// answers keyed by question.
type Anamnesis struct {
	ID           uuid.UUID              `db:"id" json:"id"`
	EmpresaID    tenant.ID              `db:"empresa_id" json:"empresa_id"`
	PacienteID   uuid.UUID              `db:"paciente_id" json:"paciente_id"`
	Respostas    map[string]interface{} `db:"respostas" json:"respostas"`
	Alergias     *string                `db:"alergias" json:"alergias,omitempty"`
	Medicamentos *string                `db:"medicamentos" json:"medicamentos,omitempty"`
	Doencas      *string                `db:"doencas" json:"doencas,omitempty"`
	Observacoes  *string                `db:"observacoes" json:"observacoes,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `db:"updated_at" json:"updated_at"`
}
