package annotation

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type Service struct {
	repo     Repository
	patients tenant.PatientOwner
	tx       db.TxRunner
}

func NewService(repo Repository, patients tenant.PatientOwner, tx db.TxRunner) *Service {
	return &Service{repo: repo, patients: patients, tx: tx}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, a *Annotation) error {
	if err := tenant.EnsurePatient(ctx, s.patients, a.PacienteID, empresaID); err != nil {
		return err
	}
	if err := normalize(a); err != nil {
		return err
	}
	a.EmpresaID = empresaID
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Annotation, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Annotation, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

// Update rewrites titulo and conteudo. The author and patient are fixed at
// creation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Annotation) (*Annotation, error) {
	if err := normalize(in); err != nil {
		return nil, err
	}
	var a *Annotation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		a.Titulo = in.Titulo
		a.Conteudo = in.Conteudo
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

func normalize(a *Annotation) error {
	a.Conteudo = strings.TrimSpace(a.Conteudo)
	if a.Conteudo == "" {
		return apperr.Validation("conteudo is required")
	}
	if a.Titulo != nil {
		t := strings.TrimSpace(*a.Titulo)
		if t == "" {
			a.Titulo = nil
		} else {
			a.Titulo = &t
		}
	}
	return nil
}
