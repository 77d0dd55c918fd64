package budget

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

const (
	StatusPendente  = "pendente"
	StatusAprovado  = "aprovado"
	StatusRecusado  = "recusado"
	StatusCancelado = "cancelado"
)

var validStatuses = map[string]bool{
	StatusPendente: true, StatusAprovado: true, StatusRecusado: true, StatusCancelado: true,
}

// Budget maps to the budgets table. ValorTotal is the sum of the items minus
// Desconto and is always recomputed by the service.
type Budget struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	EmpresaID     tenant.ID   `db:"empresa_id" json:"empresa_id"`
	PacienteID    uuid.UUID   `db:"paciente_id" json:"paciente_id"`
	PacienteNome  string      `db:"-" json:"paciente_nome,omitempty"`
	AgendamentoID *uuid.UUID  `db:"agendamento_id" json:"agendamento_id,omitempty"`
	DentistaID    *uuid.UUID  `db:"dentista_id" json:"dentista_id,omitempty"`
	Status        string      `db:"status" json:"status"`
	ValorTotal    float64     `db:"valor_total" json:"valor_total"`
	Desconto      float64     `db:"desconto" json:"desconto"`
	Validade      *civil.Date `db:"validade" json:"validade,omitempty"`
	Observacoes   *string     `db:"observacoes" json:"observacoes,omitempty"`
	Itens         []*Item     `db:"-" json:"itens,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Item maps to the budget_items table.
type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrcamentoID    uuid.UUID  `db:"orcamento_id" json:"orcamento_id"`
	ProcedimentoID *uuid.UUID `db:"procedimento_id" json:"procedimento_id,omitempty"`
	Descricao      string     `db:"descricao" json:"descricao"`
	Dente          *string    `db:"dente" json:"dente,omitempty"`
	Quantidade     int        `db:"quantidade" json:"quantidade"`
	ValorUnitario  float64    `db:"valor_unitario" json:"valor_unitario"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

func (i *Item) Subtotal() float64 {
	return reporting.Round2(float64(i.Quantidade) * i.ValorUnitario)
}

// StatusInput is the body of PATCH /orcamentos/:id/status.
type StatusInput struct {
	Status string `json:"status"`
}
