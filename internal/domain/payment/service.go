package payment

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/budget"
	"github.com/odonto/odonto/internal/domain/notification"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	templates "github.com/odonto/odonto/internal/platform/notification"
	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

type Budgets interface {
	Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*budget.Budget, error)
}

type Notifier interface {
	Notify(ctx context.Context, r notification.Request) (*notification.Notification, error)
}

type Service struct {
	repo     Repository
	patients tenant.PatientOwner
	budgets  Budgets
	notifier Notifier
	tx       db.TxRunner
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients tenant.PatientOwner, budgets Budgets, notifier Notifier, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		budgets:  budgets,
		notifier: notifier,
		tx:       tx,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, p *Payment) error {
	if err := tenant.EnsurePatient(ctx, s.patients, p.PacienteID, empresaID); err != nil {
		return err
	}
	if err := s.prepare(p); err != nil {
		return err
	}
	p.EmpresaID = empresaID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkBudget(ctx, empresaID, p); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		stored, err := s.repo.GetByID(ctx, p.ID, empresaID)
		if err != nil {
			return err
		}
		p.PacienteNome = stored.PacienteNome
		return nil
	})
	if err != nil {
		return err
	}
	if p.Status == StatusPago {
		s.notifyReceived(ctx, p)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Payment, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Payment, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Payment) (*Payment, error) {
	if err := s.prepare(in); err != nil {
		return nil, err
	}
	var p *Payment
	var paid bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		if in.PacienteID != uuid.Nil && in.PacienteID != p.PacienteID {
			if err := tenant.EnsurePatient(ctx, s.patients, in.PacienteID, empresaID); err != nil {
				return err
			}
			p.PacienteID = in.PacienteID
		}
		p.OrcamentoID = in.OrcamentoID
		if err := s.checkBudget(ctx, empresaID, p); err != nil {
			return err
		}
		paid = in.Status == StatusPago && p.Status != StatusPago
		p.Valor = in.Valor
		p.Metodo = in.Metodo
		p.Status = in.Status
		p.Parcelas = in.Parcelas
		p.Vencimento = in.Vencimento
		p.DataPagamento = in.DataPagamento
		p.Observacoes = in.Observacoes
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if paid {
		s.notifyReceived(ctx, p)
	}
	return p, nil
}

// UpdateStatus moves the payment to status. Becoming pago stamps the payment
// date when missing and notifies the clinic.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, empresaID tenant.ID, status string) (*Payment, error) {
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid status %q", status)
	}
	var p *Payment
	var paid bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		paid = status == StatusPago && p.Status != StatusPago
		p.Status = status
		if paid && p.DataPagamento == nil {
			today := civil.DateOf(s.now())
			p.DataPagamento = &today
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if paid {
		s.notifyReceived(ctx, p)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
}

// checkBudget verifies that a linked budget belongs to the same tenant and
// patient. A budget of another tenant is reported as not found.
func (s *Service) checkBudget(ctx context.Context, empresaID tenant.ID, p *Payment) error {
	if p.OrcamentoID == nil {
		return nil
	}
	b, err := s.budgets.Get(ctx, *p.OrcamentoID, empresaID)
	if err != nil {
		return err
	}
	if b.PacienteID != p.PacienteID {
		return apperr.Validation("orcamento belongs to another patient")
	}
	if b.Status == budget.StatusCancelado || b.Status == budget.StatusRecusado {
		return apperr.Validation("orcamento is %s", b.Status)
	}
	return nil
}

func (s *Service) prepare(p *Payment) error {
	p.Metodo = strings.TrimSpace(strings.ToLower(p.Metodo))
	if p.Status == "" {
		p.Status = StatusPendente
	}
	if p.Parcelas == 0 {
		p.Parcelas = 1
	}
	switch {
	case math.IsNaN(p.Valor) || math.IsInf(p.Valor, 0) || p.Valor <= 0:
		return apperr.Validation("valor must be greater than zero")
	case !validMethods[p.Metodo]:
		return apperr.Validation("invalid metodo %q", p.Metodo)
	case !validStatuses[p.Status]:
		return apperr.Validation("invalid status %q", p.Status)
	case p.Parcelas < 1 || p.Parcelas > maxParcelas:
		return apperr.Validation("parcelas must be between 1 and %d", maxParcelas)
	}
	p.Valor = reporting.Round2(p.Valor)
	if p.Status == StatusPago && p.DataPagamento == nil {
		today := civil.DateOf(s.now())
		p.DataPagamento = &today
	}
	return nil
}

func (s *Service) notifyReceived(ctx context.Context, p *Payment) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Notify(ctx, notification.Request{
		EmpresaID: p.EmpresaID,
		Template:  templates.TemplatePagamentoRecebido,
		Data: map[string]string{
			"paciente": p.PacienteNome,
			"valor":    reporting.BRL(p.Valor),
			"metodo":   strings.ReplaceAll(p.Metodo, "_", " "),
		},
		PacienteID:   &p.PacienteID,
		ReferenciaID: &p.ID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("enqueue payment notification")
	}
}
