package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

// TipoManual marks notifications written by a user rather than rendered from
// a template.
const TipoManual = "manual"

// Notification maps to the notifications table. A nil UsuarioID addresses
// every usuario of the empresa.
type Notification struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	EmpresaID    tenant.ID  `db:"empresa_id" json:"empresa_id"`
	UsuarioID    *uuid.UUID `db:"usuario_id" json:"usuario_id,omitempty"`
	PacienteID   *uuid.UUID `db:"paciente_id" json:"paciente_id,omitempty"`
	Tipo         string     `db:"tipo" json:"tipo"`
	Titulo       string     `db:"titulo" json:"titulo"`
	Mensagem     string     `db:"mensagem" json:"mensagem"`
	ReferenciaID *uuid.UUID `db:"referencia_id" json:"referencia_id,omitempty"`
	Lida         bool       `db:"lida" json:"lida"`
	LidaEm       *time.Time `db:"lida_em" json:"lida_em,omitempty"`
	AgendadaPara *time.Time `db:"agendada_para" json:"agendada_para,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// CreateInput is the body of POST /notificacoes. When Template is set the
// titulo and mensagem are rendered from it with Dados.
type CreateInput struct {
	UsuarioID    *uuid.UUID        `json:"usuario_id"`
	PacienteID   *uuid.UUID        `json:"paciente_id"`
	Titulo       string            `json:"titulo"`
	Mensagem     string            `json:"mensagem"`
	Template     string            `json:"template"`
	Dados        map[string]string `json:"dados"`
	ReferenciaID *uuid.UUID        `json:"referencia_id"`
	AgendadaPara *time.Time        `json:"agendada_para"`
}

// Request is a template-rendered notification raised by another service.
type Request struct {
	EmpresaID    tenant.ID
	Template     string
	Data         map[string]string
	PacienteID   *uuid.UUID
	UsuarioID    *uuid.UUID
	ReferenciaID *uuid.UUID
	AgendadaPara *time.Time
}
