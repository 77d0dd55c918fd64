package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

type Service struct {
	repo     Repository
	patients tenant.PatientOwner
	tx       db.TxRunner
	now      func() time.Time
}

func NewService(repo Repository, patients tenant.PatientOwner, tx db.TxRunner) *Service {
	return &Service{repo: repo, patients: patients, tx: tx, now: time.Now}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, e *Evaluation) error {
	if err := tenant.EnsurePatient(ctx, s.patients, e.PacienteID, empresaID); err != nil {
		return err
	}
	if err := s.normalize(e); err != nil {
		return err
	}
	e.EmpresaID = empresaID
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Evaluation, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Evaluation, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Evaluation) (*Evaluation, error) {
	if err := s.normalize(in); err != nil {
		return nil, err
	}
	var e *Evaluation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if e, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		if in.PacienteID != uuid.Nil && in.PacienteID != e.PacienteID {
			if err := tenant.EnsurePatient(ctx, s.patients, in.PacienteID, empresaID); err != nil {
				return err
			}
			e.PacienteID = in.PacienteID
		}
		e.DentistaID = in.DentistaID
		e.Data = in.Data
		e.Odontograma = in.Odontograma
		e.Diagnostico = in.Diagnostico
		e.Observacoes = in.Observacoes
		return s.repo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
}

func (s *Service) normalize(e *Evaluation) error {
	if e.Data.IsZero() {
		e.Data = civil.DateOf(s.now())
	}
	if e.Odontograma == nil {
		e.Odontograma = Odontogram{}
	}
	for n, tooth := range e.Odontograma {
		if !ValidTooth(n) {
			return apperr.Validation("invalid tooth number %q", n)
		}
		for i, f := range tooth.Faces {
			f = strings.ToUpper(strings.TrimSpace(f))
			if !validFaces[f] {
				return apperr.Validation("tooth %s: invalid face %q", n, tooth.Faces[i])
			}
			tooth.Faces[i] = f
		}
	}
	return nil
}
