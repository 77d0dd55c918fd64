package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

const (
	StatusAgendado      = "agendado"
	StatusConfirmado    = "confirmado"
	StatusEmAtendimento = "em_atendimento"
	StatusConcluido     = "concluido"
	StatusCancelado     = "cancelado"
	StatusFaltou        = "faltou"
)

var validStatuses = map[string]bool{
	StatusAgendado: true, StatusConfirmado: true, StatusEmAtendimento: true,
	StatusConcluido: true, StatusCancelado: true, StatusFaltou: true,
}

// Appointment maps to the appointments table. PacienteNome is filled on
// reads and never stored.
type Appointment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	EmpresaID      tenant.ID  `db:"empresa_id" json:"empresa_id"`
	PacienteID     uuid.UUID  `db:"paciente_id" json:"paciente_id"`
	PacienteNome   string     `db:"-" json:"paciente_nome,omitempty"`
	DentistaID     *uuid.UUID `db:"dentista_id" json:"dentista_id,omitempty"`
	ProcedimentoID *uuid.UUID `db:"procedimento_id" json:"procedimento_id,omitempty"`
	DataHora       time.Time  `db:"data_hora" json:"data_hora"`
	DuracaoMinutos *int       `db:"duracao_minutos" json:"duracao_minutos,omitempty"`
	Status         string     `db:"status" json:"status"`
	Observacoes    *string    `db:"observacoes" json:"observacoes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// StatusInput is the body of PATCH /agendamentos/:id/status.
type StatusInput struct {
	Status string `json:"status"`
}
