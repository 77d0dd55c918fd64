package anamnesis

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

const maxAnswers = 500

type Service struct {
	repo     Repository
	patients tenant.PatientOwner
	tx       db.TxRunner
}

func NewService(repo Repository, patients tenant.PatientOwner, tx db.TxRunner) *Service {
	return &Service{repo: repo, patients: patients, tx: tx}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, a *Anamnesis) error {
	if err := tenant.EnsurePatient(ctx, s.patients, a.PacienteID, empresaID); err != nil {
		return err
	}
	if err := normalize(a); err != nil {
		return err
	}
	a.EmpresaID = empresaID
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Anamnesis, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Anamnesis, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Anamnesis) (*Anamnesis, error) {
	if err := normalize(in); err != nil {
		return nil, err
	}
	var a *Anamnesis
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
		a.Respostas = in.Respostas
		a.Alergias = in.Alergias
		a.Medicamentos = in.Medicamentos
		a.Doencas = in.Doencas
		a.Observacoes = in.Observacoes
		return s.repo.Update(ctx, a)
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

func normalize(a *Anamnesis) error {
	if a.Respostas == nil {
		a.Respostas = map[string]interface{}{}
	}
	if len(a.Respostas) > maxAnswers {
		return apperr.Validation("respostas accepts at most %d answers", maxAnswers)
	}
	for k := range a.Respostas {
		if strings.TrimSpace(k) == "" {
			return apperr.Validation("respostas keys must not be blank")
		}
	}
	return nil
}
