package followup

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

const (
	StatusPendente  = "pendente"
	StatusAgendado  = "agendado"
	StatusRealizado = "realizado"
	StatusCancelado = "cancelado"
)

var validStatuses = map[string]bool{
	StatusPendente: true, StatusAgendado: true, StatusRealizado: true, StatusCancelado: true,
}

// Followup (retorno) is a planned return visit, optionally tied to the
// appointment that originated it.
type Followup struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	EmpresaID     tenant.ID  `db:"empresa_id" json:"empresa_id"`
	PacienteID    uuid.UUID  `db:"paciente_id" json:"paciente_id"`
	PacienteNome  string     `db:"-" json:"paciente_nome,omitempty"`
	AgendamentoID *uuid.UUID `db:"agendamento_id" json:"agendamento_id,omitempty"`
	DataPrevista  civil.Date `db:"data_prevista" json:"data_prevista"`
	Motivo        string     `db:"motivo" json:"motivo"`
	Status        string     `db:"status" json:"status"`
	Observacoes   *string    `db:"observacoes" json:"observacoes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type StatusInput struct {
	Status string `json:"status"`
}
