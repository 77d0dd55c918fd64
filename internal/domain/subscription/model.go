package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

const (
	StatusTrial        = "trial"
	StatusAtiva        = "ativa"
	StatusInadimplente = "inadimplente"
	StatusCancelada    = "cancelada"
)

const (
	PlanoBasico       = "basico"
	PlanoProfissional = "profissional"
	PlanoClinica      = "clinica"
)

// Prices holds the list price of each plan in BRL per month.
var Prices = map[string]float64{
	PlanoBasico:       99.90,
	PlanoProfissional: 199.90,
	PlanoClinica:      399.90,
}

var statuses = map[string]bool{
	StatusTrial: true, StatusAtiva: true, StatusInadimplente: true, StatusCancelada: true,
}

// Subscription is the empresa's plan. There is at most one per empresa.
type Subscription struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	EmpresaID   tenant.ID   `db:"empresa_id" json:"empresa_id"`
	Plano       string      `db:"plano" json:"plano"`
	Status      string      `db:"status" json:"status"`
	ValorMensal float64     `db:"valor_mensal" json:"valor_mensal"`
	Inicio      civil.Date  `db:"inicio" json:"inicio"`
	Fim         *civil.Date `db:"fim" json:"fim,omitempty"`
	CanceladaEm *time.Time  `db:"cancelada_em" json:"cancelada_em,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	Ativa       bool        `db:"-" json:"ativa"`
}

// Active reports whether the subscription grants access on day.
func (s *Subscription) Active(day civil.Date) bool {
	if s == nil {
		return false
	}
	if s.Status != StatusAtiva && s.Status != StatusTrial {
		return false
	}
	return s.Fim == nil || !s.Fim.Before(day.Time)
}

// UpsertInput is the body of PUT /assinatura. Omitted fields keep their
// current value; ValorMensal defaults to the plan's list price.
type UpsertInput struct {
	Plano       string      `json:"plano"`
	Status      string      `json:"status,omitempty"`
	ValorMensal *float64    `json:"valor_mensal,omitempty"`
	Inicio      *civil.Date `json:"inicio,omitempty"`
	Fim         *civil.Date `json:"fim,omitempty"`
}
