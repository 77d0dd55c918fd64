package treatmentplan

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

// Plan statuses.
const (
	StatusEmAndamento = "em_andamento"
	StatusConcluido   = "concluido"
	StatusCancelado   = "cancelado"
)

var validStatuses = map[string]bool{
	StatusEmAndamento: true, StatusConcluido: true, StatusCancelado: true,
}

// Item statuses.
const (
	ItemPendente    = "pendente"
	ItemEmAndamento = "em_andamento"
	ItemConcluido   = "concluido"
)

const maxSessions = 50

// Plan maps to treatment_plans. Progresso is the share of completed items,
// 0..100, and is only written by the service.
type Plan struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	EmpresaID    tenant.ID  `db:"empresa_id" json:"empresa_id"`
	PacienteID   uuid.UUID  `db:"paciente_id" json:"paciente_id"`
	PacienteNome string     `db:"-" json:"paciente_nome,omitempty"`
	DentistaID   *uuid.UUID `db:"dentista_id" json:"dentista_id,omitempty"`
	OrcamentoID  *uuid.UUID `db:"orcamento_id" json:"orcamento_id,omitempty"`
	Titulo       string     `db:"titulo" json:"titulo"`
	Descricao    *string    `db:"descricao" json:"descricao,omitempty"`
	Status       string     `db:"status" json:"status"`
	Progresso    int        `db:"progresso" json:"progresso"`
	Itens        []*Item    `db:"-" json:"itens,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Item maps to treatment_items. TotalSessoes is input only: when Sessoes is
// empty that many sessions are generated.
type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PlanoID        uuid.UUID  `db:"plano_id" json:"plano_id"`
	ProcedimentoID *uuid.UUID `db:"procedimento_id" json:"procedimento_id,omitempty"`
	Descricao      string     `db:"descricao" json:"descricao"`
	Dente          *string    `db:"dente" json:"dente,omitempty"`
	Status         string     `db:"status" json:"status"`
	TotalSessoes   int        `db:"-" json:"total_sessoes,omitempty"`
	Sessoes        []*Session `db:"-" json:"sessoes"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Session maps to treatment_sessions.
type Session struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	ItemID       uuid.UUID   `db:"item_id" json:"item_id"`
	Numero       int         `db:"numero" json:"numero"`
	DataPrevista *civil.Date `db:"data_prevista" json:"data_prevista,omitempty"`
	ConcluidaEm  *time.Time  `db:"concluida_em" json:"concluida_em,omitempty"`
	Observacoes  *string     `db:"observacoes" json:"observacoes,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

func (s *Session) Done() bool { return s.ConcluidaEm != nil }

type CompleteInput struct {
	Observacoes *string `json:"observacoes"`
}

// Progress returns round(completed/total*100), or 0 for a plan without
// items.
func Progress(items []*Item) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, it := range items {
		if it.Status == ItemConcluido {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(items)) * 100))
}
