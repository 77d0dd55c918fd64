package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/notification"
	"github.com/odonto/odonto/internal/domain/patient"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	templates "github.com/odonto/odonto/internal/platform/notification"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// reminderLead is how long before the appointment its reminder is due.
const reminderLead = 24 * time.Hour

// Patients checks ownership and resolves names of patients.
type Patients interface {
	tenant.PatientOwner
	patient.NameSource
}

// Durations resolves the default length of a procedure.
type Durations interface {
	Duration(ctx context.Context, id *uuid.UUID, empresaID tenant.ID) (int, error)
}

// Notifier stores template-rendered notifications.
type Notifier interface {
	Notify(ctx context.Context, r notification.Request) (*notification.Notification, error)
}

type Service struct {
	repo      Repository
	patients  Patients
	durations Durations
	notifier  Notifier
	tx        db.TxRunner
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, patients Patients, durations Durations, notifier Notifier, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		patients:  patients,
		durations: durations,
		notifier:  notifier,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, a *Appointment) error {
	if err := tenant.EnsurePatient(ctx, s.patients, a.PacienteID, empresaID); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = StatusAgendado
	}
	if err := validate(a); err != nil {
		return err
	}
	if a.DuracaoMinutos == nil {
		d, err := s.durations.Duration(ctx, a.ProcedimentoID, empresaID)
		if err != nil {
			return err
		}
		a.DuracaoMinutos = &d
	}
	a.EmpresaID = empresaID
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	s.remind(ctx, a)
	return nil
}

// remind enqueues the appointment reminder. Failures are logged only.
func (s *Service) remind(ctx context.Context, a *Appointment) {
	if s.notifier == nil || a.Status != StatusAgendado {
		return
	}
	names, err := s.patients.Names(ctx, a.EmpresaID, []uuid.UUID{a.PacienteID})
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("resolve patient for reminder")
	}
	a.PacienteNome = names[a.PacienteID]

	req := notification.Request{
		EmpresaID: a.EmpresaID,
		Template:  templates.TemplateLembreteConsulta,
		Data: map[string]string{
			"paciente":     a.PacienteNome,
			"data":         a.DataHora.Format("02/01/2006"),
			"hora":         a.DataHora.Format("15:04"),
			"profissional": "nossa equipe",
		},
		PacienteID:   &a.PacienteID,
		UsuarioID:    a.DentistaID,
		ReferenciaID: &a.ID,
	}
	if due := a.DataHora.Add(-reminderLead); due.After(s.now()) {
		req.AgendadaPara = &due
	}
	if _, err := s.notifier.Notify(ctx, req); err != nil {
		s.logger.Warn().Err(err).
			Str("appointment_id", a.ID.String()).
			Str("empresa_id", a.EmpresaID.String()).
			Msg("enqueue appointment reminder")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

// List returns a page of appointments with patient names resolved.
func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Appointment, int, error) {
	items, total, err := s.repo.List(ctx, empresaID, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, len(items))
	for i, a := range items {
		ids[i] = a.PacienteID
	}
	names, err := patient.ResolveNames(ctx, s.patients, empresaID, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range items {
		a.PacienteNome = names[a.PacienteID]
	}
	return items, total, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Appointment) (*Appointment, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var a *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		if in.PacienteID != uuid.Nil && in.PacienteID != a.PacienteID {
			if err := tenant.EnsurePatient(ctx, s.patients, in.PacienteID, empresaID); err != nil {
				return err
			}
			a.PacienteID = in.PacienteID
		}
		a.DentistaID = in.DentistaID
		a.ProcedimentoID = in.ProcedimentoID
		a.DataHora = in.DataHora
		if in.DuracaoMinutos != nil {
			a.DuracaoMinutos = in.DuracaoMinutos
		}
		if in.Status != "" {
			a.Status = in.Status
		}
		a.Observacoes = in.Observacoes
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, empresaID tenant.ID, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid status %q", status)
	}
	var a *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		a.Status = status
		return s.repo.UpdateStatus(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
}

func validate(a *Appointment) error {
	if a.DataHora.IsZero() {
		return apperr.Validation("data_hora is required")
	}
	if a.Status != "" && !validStatuses[a.Status] {
		return apperr.Validation("invalid status %q", a.Status)
	}
	if a.DuracaoMinutos != nil && (*a.DuracaoMinutos <= 0 || *a.DuracaoMinutos > 24*60) {
		return apperr.Validation("duracao_minutos must be between 1 and 1440")
	}
	return nil
}
