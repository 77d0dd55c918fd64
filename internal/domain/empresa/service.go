package empresa

import (
	"context"
	"strings"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, e *Empresa) error {
	e.Nome = strings.TrimSpace(e.Nome)
	if e.Nome == "" {
		return apperr.Validation("nome is required")
	}
	cnpj, err := normalizeCNPJ(e.CNPJ)
	if err != nil {
		return err
	}
	e.CNPJ = cnpj
	e.Ativo = true
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id tenant.ID) (*Empresa, error) {
	if !id.Valid() {
		return nil, apperr.NotFound("empresa")
	}
	return s.repo.GetByID(ctx, id)
}

// First returns the empresa new auto-provisioned usuarios are bound to.
func (s *Service) First(ctx context.Context) (*Empresa, error) {
	return s.repo.First(ctx)
}

func (s *Service) Update(ctx context.Context, id tenant.ID, in UpdateInput) (*Empresa, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if nome := strings.TrimSpace(in.Nome); nome != "" {
		e.Nome = nome
	}
	if in.CNPJ != nil {
		cnpj, err := normalizeCNPJ(in.CNPJ)
		if err != nil {
			return nil, err
		}
		e.CNPJ = cnpj
	}
	if in.Email != nil {
		e.Email = in.Email
	}
	if in.Telefone != nil {
		e.Telefone = in.Telefone
	}
	if in.Endereco != nil {
		e.Endereco = in.Endereco
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Empresa, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// normalizeCNPJ strips punctuation and requires 14 digits. Blank values clear
// the field.
func normalizeCNPJ(v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	var b strings.Builder
	for _, r := range *v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return nil, apperr.Validation("cnpj must contain only digits")
		}
	}
	digits := b.String()
	if digits == "" {
		return nil, nil
	}
	if len(digits) != 14 {
		return nil, apperr.Validation("cnpj must have 14 digits")
	}
	return &digits, nil
}
