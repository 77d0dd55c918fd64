package attachment

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

// Attachment maps to the attachments table. The file itself lives in the
// blob store under Chave.
type Attachment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	EmpresaID  tenant.ID `db:"empresa_id" json:"empresa_id"`
	PacienteID uuid.UUID `db:"paciente_id" json:"paciente_id"`
	Nome       string    `db:"nome" json:"nome"`
	Tipo       string    `db:"tipo" json:"tipo"`
	Tamanho    int64     `db:"tamanho" json:"tamanho"`
	Chave      string    `db:"chave" json:"-"`
	URL        string    `db:"url" json:"url"`
	SHA256     string    `db:"sha256" json:"sha256"`
	Descricao  *string   `db:"descricao" json:"descricao,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UploadInput is a file received from a multipart form.
type UploadInput struct {
	PacienteID uuid.UUID
	Nome       string
	Tipo       string
	Descricao  *string
	Body       io.Reader
}
