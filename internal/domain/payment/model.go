package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

const (
	StatusPendente  = "pendente"
	StatusPago      = "pago"
	StatusCancelado = "cancelado"
	StatusEstornado = "estornado"
)

var validStatuses = map[string]bool{
	StatusPendente: true, StatusPago: true, StatusCancelado: true, StatusEstornado: true,
}

// Payment methods accepted by the clinic.
const (
	MetodoDinheiro      = "dinheiro"
	MetodoPix           = "pix"
	MetodoCartaoCredito = "cartao_credito"
	MetodoCartaoDebito  = "cartao_debito"
	MetodoBoleto        = "boleto"
	MetodoTransferencia = "transferencia"
	MetodoConvenio      = "convenio"
)

var validMethods = map[string]bool{
	MetodoDinheiro: true, MetodoPix: true, MetodoCartaoCredito: true, MetodoCartaoDebito: true,
	MetodoBoleto: true, MetodoTransferencia: true, MetodoConvenio: true,
}

const maxParcelas = 48

// Payment maps to the payments table. OrcamentoID optionally links the
// payment to a budget of the same patient.
type Payment struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	EmpresaID     tenant.ID   `db:"empresa_id" json:"empresa_id"`
	PacienteID    uuid.UUID   `db:"paciente_id" json:"paciente_id"`
	PacienteNome  string      `db:"-" json:"paciente_nome,omitempty"`
	OrcamentoID   *uuid.UUID  `db:"orcamento_id" json:"orcamento_id,omitempty"`
	Valor         float64     `db:"valor" json:"valor"`
	Metodo        string      `db:"metodo" json:"metodo"`
	Status        string      `db:"status" json:"status"`
	Parcelas      int         `db:"parcelas" json:"parcelas"`
	Vencimento    *civil.Date `db:"vencimento" json:"vencimento,omitempty"`
	DataPagamento *civil.Date `db:"data_pagamento" json:"data_pagamento,omitempty"`
	Observacoes   *string     `db:"observacoes" json:"observacoes,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

type StatusInput struct {
	Status string `json:"status"`
}
