package budget

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/appointment"
	"github.com/odonto/odonto/internal/domain/notification"
	"github.com/odonto/odonto/internal/domain/procedure"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	templates "github.com/odonto/odonto/internal/platform/notification"
	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type Appointments interface {
	Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*appointment.Appointment, error)
}

type Procedures interface {
	Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*procedure.Procedure, error)
}

type Notifier interface {
	Notify(ctx context.Context, r notification.Request) (*notification.Notification, error)
}

type Service struct {
	repo         Repository
	patients     tenant.PatientOwner
	appointments Appointments
	procedures   Procedures
	notifier     Notifier
	tx           db.TxRunner
	logger       zerolog.Logger
}

func NewService(repo Repository, patients tenant.PatientOwner, appointments Appointments, procedures Procedures,
	notifier Notifier, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		appointments: appointments,
		procedures:   procedures,
		notifier:     notifier,
		tx:           tx,
		logger:       logger,
	}
}

// Create stores the budget and its items in one transaction.
func (s *Service) Create(ctx context.Context, empresaID tenant.ID, b *Budget) error {
	if err := tenant.EnsurePatient(ctx, s.patients, b.PacienteID, empresaID); err != nil {
		return err
	}
	if b.Status == "" {
		b.Status = StatusPendente
	}
	if !validStatuses[b.Status] {
		return apperr.Validation("invalid status %q", b.Status)
	}
	if err := s.linkAppointment(ctx, empresaID, b); err != nil {
		return err
	}
	if len(b.Itens) == 0 {
		return apperr.Validation("at least one item is required")
	}
	if err := s.prepareItems(ctx, empresaID, b); err != nil {
		return err
	}
	b.EmpresaID = empresaID
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}
		return s.repo.AddItems(ctx, b.ID, b.Itens)
	})
}

// linkAppointment checks that the referenced appointment belongs to the same
// empresa and patient and inherits its dentist.
func (s *Service) linkAppointment(ctx context.Context, empresaID tenant.ID, b *Budget) error {
	if b.AgendamentoID == nil {
		return nil
	}
	a, err := s.appointments.Get(ctx, *b.AgendamentoID, empresaID)
	if err != nil {
		return err
	}
	if a.PacienteID != b.PacienteID {
		return apperr.Validation("agendamento belongs to another patient")
	}
	if b.DentistaID == nil {
		b.DentistaID = a.DentistaID
	}
	return nil
}

// prepareItems validates the items, fills blanks from the procedure catalog
// and recomputes the total.
func (s *Service) prepareItems(ctx context.Context, empresaID tenant.ID, b *Budget) error {
	var sum float64
	for i, it := range b.Itens {
		if it == nil {
			return apperr.Validation("item %d is empty", i+1)
		}
		it.Descricao = strings.TrimSpace(it.Descricao)
		if it.ProcedimentoID != nil {
			p, err := s.procedures.Get(ctx, *it.ProcedimentoID, empresaID)
			if err != nil {
				return err
			}
			if it.Descricao == "" {
				it.Descricao = p.Nome
			}
			if it.ValorUnitario == 0 {
				it.ValorUnitario = p.Valor
			}
		}
		if it.Descricao == "" {
			return apperr.Validation("item %d: descricao is required", i+1)
		}
		if it.Quantidade == 0 {
			it.Quantidade = 1
		}
		if it.Quantidade < 0 {
			return apperr.Validation("item %d: quantidade must be positive", i+1)
		}
		if it.ValorUnitario < 0 {
			return apperr.Validation("item %d: valor_unitario must not be negative", i+1)
		}
		sum += it.Subtotal()
	}
	if b.Desconto < 0 || b.Desconto > sum {
		return apperr.Validation("desconto must be between 0 and the items total")
	}
	b.ValorTotal = reporting.Round2(sum - b.Desconto)
	return nil
}

// Get returns the budget with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Budget, error) {
	b, err := s.repo.GetByID(ctx, id, empresaID)
	if err != nil {
		return nil, err
	}
	if b.Itens, err = s.repo.Items(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Budget, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

// Update replaces the editable fields. A non-nil Itens replaces every item;
// otherwise the stored items are kept and only the total is recomputed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Budget) (*Budget, error) {
	if in.Status != "" && !validStatuses[in.Status] {
		return nil, apperr.Validation("invalid status %q", in.Status)
	}
	var b *Budget
	var approved bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if b, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		b.AgendamentoID = in.AgendamentoID
		b.DentistaID = in.DentistaID
		if err := s.linkAppointment(ctx, empresaID, b); err != nil {
			return err
		}
		if in.Status != "" {
			approved = transition(b, in.Status)
		}
		b.Desconto = in.Desconto
		b.Validade = in.Validade
		b.Observacoes = in.Observacoes

		replace := in.Itens != nil
		if replace {
			if len(in.Itens) == 0 {
				return apperr.Validation("at least one item is required")
			}
			b.Itens = in.Itens
		} else if b.Itens, err = s.repo.Items(ctx, b.ID); err != nil {
			return err
		}
		if err := s.prepareItems(ctx, empresaID, b); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		if !replace {
			return nil
		}
		if _, err := s.repo.DeleteItems(ctx, b.ID); err != nil {
			return err
		}
		return s.repo.AddItems(ctx, b.ID, b.Itens)
	})
	if err != nil {
		return nil, err
	}
	if approved {
		s.notifyApproved(ctx, b)
	}
	return b, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, empresaID tenant.ID, status string) (*Budget, error) {
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid status %q", status)
	}
	var b *Budget
	var approved bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if b, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		approved = transition(b, status)
		return s.repo.UpdateStatus(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	if approved {
		s.notifyApproved(ctx, b)
	}
	return b, nil
}

// transition sets the status and reports whether the budget has just been
// approved.
func transition(b *Budget, status string) bool {
	approved := status == StatusAprovado && b.Status != StatusAprovado
	b.Status = status
	return approved
}

func (s *Service) notifyApproved(ctx context.Context, b *Budget) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Notify(ctx, notification.Request{
		EmpresaID:    b.EmpresaID,
		Template:     templates.TemplateOrcamentoAprovado,
		Data:         map[string]string{"paciente": b.PacienteNome, "valor": reporting.BRL(b.ValorTotal)},
		PacienteID:   &b.PacienteID,
		UsuarioID:    b.DentistaID,
		ReferenciaID: &b.ID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("budget_id", b.ID.String()).Msg("enqueue budget approval notification")
	}
}

// Delete removes the items and then the budget inside one transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id, empresaID)
		if err != nil {
			return err
		}
		if _, err := s.repo.DeleteItems(ctx, b.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, b.ID, empresaID)
	})
}
