package evaluation

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

// Tooth is the recorded state of one tooth.
type Tooth struct {
	Condicoes  []string `json:"condicoes,omitempty"`
	Faces      []string `json:"faces,omitempty"`
	Observacao string   `json:"observacao,omitempty"`
}

// Odontogram maps FDI tooth numbers ("11".."48", deciduous "51".."85") to
// their state. It is stored as jsonb.
type Odontogram map[string]Tooth

// Evaluation maps to the evaluations table.
type Evaluation struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	EmpresaID   tenant.ID  `db:"empresa_id" json:"empresa_id"`
	PacienteID  uuid.UUID  `db:"paciente_id" json:"paciente_id"`
	DentistaID  *uuid.UUID `db:"dentista_id" json:"dentista_id,omitempty"`
	Data        civil.Date `db:"data" json:"data"`
	Odontograma Odontogram `db:"odontograma" json:"odontograma"`
	Diagnostico *string    `db:"diagnostico" json:"diagnostico,omitempty"`
	Observacoes *string    `db:"observacoes" json:"observacoes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

var validFaces = map[string]bool{
	"M": true, "D": true, "O": true, "I": true, "V": true, "L": true, "P": true,
}

// ValidTooth reports whether n is an FDI tooth number.
func ValidTooth(n string) bool {
	if len(n) != 2 || n[0] < '1' || n[0] > '8' || n[1] < '1' {
		return false
	}
	if n[0] <= '4' {
		return n[1] <= '8'
	}
	return n[1] <= '5'
}
