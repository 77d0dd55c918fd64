package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

var _ tenant.PatientOwner = (*Service)(nil)

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, p *Patient) error {
	if err := normalize(p); err != nil {
		return err
	}
	p.EmpresaID = empresaID
	p.Ativo = true
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Patient, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

// Update replaces the editable fields of the patient with those of in.
func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Patient) (*Patient, error) {
	if err := normalize(in); err != nil {
		return nil, err
	}
	var p *Patient
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		p.Nome = in.Nome
		p.CPF = in.CPF
		p.DataNascimento = in.DataNascimento
		p.Sexo = in.Sexo
		p.Telefone = in.Telefone
		p.Email = in.Email
		p.Endereco = in.Endereco
		p.Convenio = in.Convenio
		p.Observacoes = in.Observacoes
		p.Ativo = in.Ativo
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
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

// PatientEmpresa returns the empresa that owns the patient.
func (s *Service) PatientEmpresa(ctx context.Context, id uuid.UUID) (tenant.ID, error) {
	return s.repo.EmpresaOf(ctx, id)
}

// Names resolves patient names for list enrichment. Ids of other empresas
// are absent from the result.
func (s *Service) Names(ctx context.Context, empresaID tenant.ID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.repo.Names(ctx, empresaID, ids)
}

func normalize(p *Patient) error {
	p.Nome = strings.TrimSpace(p.Nome)
	if p.Nome == "" {
		return apperr.Validation("nome is required")
	}
	if p.CPF != nil {
		cpf, err := normalizeCPF(*p.CPF)
		if err != nil {
			return err
		}
		p.CPF = cpf
	}
	if p.Sexo != nil && !validSexo[*p.Sexo] {
		return apperr.Validation("sexo must be one of M, F, O")
	}
	return nil
}

var validSexo = map[string]bool{"M": true, "F": true, "O": true}

// normalizeCPF strips punctuation and requires 11 digits. Blank values clear
// the field.
func normalizeCPF(v string) (*string, error) {
	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
		default:
			return nil, apperr.Validation("cpf must contain only digits")
		}
	}
	digits := b.String()
	if digits == "" {
		return nil, nil
	}
	if len(digits) != 11 {
		return nil, apperr.Validation("cpf must have 11 digits")
	}
	return &digits, nil
}
