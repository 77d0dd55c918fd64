package followup

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/appointment"
	"github.com/odonto/odonto/internal/domain/notification"
	"github.com/odonto/odonto/internal/domain/patient"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	templates "github.com/odonto/odonto/internal/platform/notification"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// The reminder is due reminderLead days before the planned date, at
// reminderHour UTC.
const (
	reminderLead = 3
	reminderHour = 9
)

type Appointments interface {
	Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*appointment.Appointment, error)
}

type Notifier interface {
	Notify(ctx context.Context, r notification.Request) (*notification.Notification, error)
}

type Service struct {
	repo         Repository
	patients     appointment.Patients
	appointments Appointments
	notifier     Notifier
	tx           db.TxRunner
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(repo Repository, patients appointment.Patients, appointments Appointments, notifier Notifier, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		appointments: appointments,
		notifier:     notifier,
		tx:           tx,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, f *Followup) error {
	if err := tenant.EnsurePatient(ctx, s.patients, f.PacienteID, empresaID); err != nil {
		return err
	}
	if f.Status == "" {
		f.Status = StatusPendente
	}
	if err := validate(f); err != nil {
		return err
	}
	if err := s.checkAppointment(ctx, empresaID, f); err != nil {
		return err
	}
	f.EmpresaID = empresaID
	if err := s.repo.Create(ctx, f); err != nil {
		return err
	}
	s.remind(ctx, f)
	return nil
}

// checkAppointment requires a linked appointment to belong to the same
// patient of the same empresa.
func (s *Service) checkAppointment(ctx context.Context, empresaID tenant.ID, f *Followup) error {
	if f.AgendamentoID == nil {
		return nil
	}
	a, err := s.appointments.Get(ctx, *f.AgendamentoID, empresaID)
	if err != nil {
		return err
	}
	if a.PacienteID != f.PacienteID {
		return apperr.Validation("agendamento belongs to another patient")
	}
	return nil
}

// remind enqueues the return reminder. Failures are logged only.
func (s *Service) remind(ctx context.Context, f *Followup) {
	if s.notifier == nil || f.Status != StatusPendente {
		return
	}
	names, err := s.patients.Names(ctx, f.EmpresaID, []uuid.UUID{f.PacienteID})
	if err != nil {
		s.logger.Warn().Err(err).Str("followup_id", f.ID.String()).Msg("resolve patient for reminder")
	}
	f.PacienteNome = names[f.PacienteID]

	req := notification.Request{
		EmpresaID: f.EmpresaID,
		Template:  templates.TemplateLembreteRetorno,
		Data: map[string]string{
			"paciente": f.PacienteNome,
			"data":     f.DataPrevista.Format("02/01/2006"),
			"motivo":   f.Motivo,
		},
		PacienteID:   &f.PacienteID,
		ReferenciaID: &f.ID,
	}
	if due := f.DataPrevista.AddDays(-reminderLead).Add(reminderHour * time.Hour); due.After(s.now()) {
		req.AgendadaPara = &due
	}
	if _, err := s.notifier.Notify(ctx, req); err != nil {
		s.logger.Warn().Err(err).
			Str("followup_id", f.ID.String()).
			Str("empresa_id", f.EmpresaID.String()).
			Msg("enqueue followup reminder")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Followup, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

// List returns a page of followups with patient names resolved.
func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Followup, int, error) {
	items, total, err := s.repo.List(ctx, empresaID, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, len(items))
	for i, f := range items {
		ids[i] = f.PacienteID
	}
	names, err := patient.ResolveNames(ctx, s.patients, empresaID, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, f := range items {
		f.PacienteNome = names[f.PacienteID]
	}
	return items, total, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Followup) (*Followup, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var f *Followup
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if f, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		if in.PacienteID != uuid.Nil && in.PacienteID != f.PacienteID {
			if err := tenant.EnsurePatient(ctx, s.patients, in.PacienteID, empresaID); err != nil {
				return err
			}
			f.PacienteID = in.PacienteID
		}
		f.AgendamentoID = in.AgendamentoID
		if err := s.checkAppointment(ctx, empresaID, f); err != nil {
			return err
		}
		f.DataPrevista = in.DataPrevista
		f.Motivo = in.Motivo
		if in.Status != "" {
			f.Status = in.Status
		}
		f.Observacoes = in.Observacoes
		return s.repo.Update(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, empresaID tenant.ID, status string) (*Followup, error) {
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid status %q", status)
	}
	var f *Followup
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if f, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		f.Status = status
		return s.repo.Update(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
}

func validate(f *Followup) error {
	f.Motivo = strings.TrimSpace(f.Motivo)
	switch {
	case f.DataPrevista.IsZero():
		return apperr.Validation("data_prevista is required")
	case f.Motivo == "":
		return apperr.Validation("motivo is required")
	case f.Status != "" && !validStatuses[f.Status]:
		return apperr.Validation("invalid status %q", f.Status)
	}
	return nil
}
