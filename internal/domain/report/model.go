package report

import (
	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/reporting"
)

// SemProfissional labels revenue that cannot be traced to a dentist.
const SemProfissional = "sem profissional"

// PaymentRow is a paid payment with the dentist of the appointment its
// budget came from, when there is one.
type PaymentRow struct {
	Valor        float64
	Metodo       string
	Profissional string
}

// ItemRow is a budget item of an approved budget.
type ItemRow struct {
	Procedimento  string
	Quantidade    int
	ValorUnitario float64
}

// AppointmentRow is a booked appointment used for occupancy.
type AppointmentRow struct {
	DentistaID     *uuid.UUID
	DentistaNome   string
	ProcedimentoID *uuid.UUID
}

// BudgetRow is the status and value of one budget.
type BudgetRow struct {
	Status     string
	ValorTotal float64
}

type Financial struct {
	Periodo         reporting.Period   `json:"periodo"`
	Total           float64            `json:"total"`
	Pagamentos      int                `json:"pagamentos"`
	TicketMedio     float64            `json:"ticket_medio"`
	PorMetodo       []reporting.Bucket `json:"por_metodo"`
	PorProfissional []reporting.Bucket `json:"por_profissional"`
}

type ProcedureLine struct {
	Procedimento string  `json:"procedimento"`
	Quantidade   int     `json:"quantidade"`
	Receita      float64 `json:"receita"`
	Percentual   float64 `json:"percentual"`
}

type Procedures struct {
	Periodo      reporting.Period `json:"periodo"`
	Quantidade   int              `json:"quantidade"`
	Receita      float64          `json:"receita"`
	Procedimento []ProcedureLine  `json:"procedimentos"`
}

type OccupancyLine struct {
	DentistaID         *uuid.UUID `json:"dentista_id,omitempty"`
	Profissional       string     `json:"profissional"`
	Consultas          int        `json:"consultas"`
	MinutosAgendados   int        `json:"minutos_agendados"`
	MinutosDisponiveis int        `json:"minutos_disponiveis"`
	TaxaOcupacao       float64    `json:"taxa_ocupacao"`
	PercentualOcupacao int        `json:"percentual_ocupacao"`
}

type Occupancy struct {
	Periodo            reporting.Period `json:"periodo"`
	DiasUteis          int              `json:"dias_uteis"`
	MinutosPorDia      int              `json:"minutos_por_dia"`
	MinutosDisponiveis int              `json:"minutos_disponiveis"`
	Profissionais      []OccupancyLine  `json:"profissionais"`
}

type StatusLine struct {
	Status     string  `json:"status"`
	Quantidade int     `json:"quantidade"`
	Valor      float64 `json:"valor"`
}

type Budgets struct {
	Periodo       reporting.Period `json:"periodo"`
	Total         int              `json:"total"`
	Aprovados     int              `json:"aprovados"`
	TaxaConversao float64          `json:"taxa_conversao"`
	ValorAprovado float64          `json:"valor_aprovado"`
	PorStatus     []StatusLine     `json:"por_status"`
}

// Summary bundles every report of one period.
type Summary struct {
	Financeiro    *Financial  `json:"financeiro"`
	Procedimentos *Procedures `json:"procedimentos"`
	Ocupacao      *Occupancy  `json:"ocupacao"`
	Orcamentos    *Budgets    `json:"orcamentos"`
}
