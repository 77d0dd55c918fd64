package procedure

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

const maxDuration = 8 * 60

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, p *Procedure) error {
	if err := validate(p); err != nil {
		return err
	}
	p.EmpresaID = empresaID
	p.Ativo = true
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Procedure, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Procedure, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Procedure) (*Procedure, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var p *Procedure
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		p.Nome = in.Nome
		p.Descricao = in.Descricao
		p.Categoria = in.Categoria
		p.Valor = in.Valor
		p.DuracaoMinutos = in.DuracaoMinutos
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

// Catalog indexes every procedure of the empresa by id.
func (s *Service) Catalog(ctx context.Context, empresaID tenant.ID) (map[uuid.UUID]*Procedure, error) {
	all, err := s.repo.All(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*Procedure, len(all))
	for _, p := range all {
		out[p.ID] = p
	}
	return out, nil
}

// Duration returns the consultation length of a procedure, falling back to
// DefaultDuration when id is nil or unknown to the empresa.
func (s *Service) Duration(ctx context.Context, id *uuid.UUID, empresaID tenant.ID) (int, error) {
	if id == nil {
		return DefaultDuration, nil
	}
	p, err := s.repo.GetByID(ctx, *id, empresaID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return DefaultDuration, nil
		}
		return 0, err
	}
	return DurationOf(p), nil
}

// DurationOf returns p's duration or DefaultDuration when p is nil or unset.
func DurationOf(p *Procedure) int {
	if p == nil || p.DuracaoMinutos <= 0 {
		return DefaultDuration
	}
	return p.DuracaoMinutos
}

func validate(p *Procedure) error {
	p.Nome = strings.TrimSpace(p.Nome)
	if p.Nome == "" {
		return apperr.Validation("nome is required")
	}
	if p.Valor < 0 || math.IsNaN(p.Valor) || math.IsInf(p.Valor, 0) {
		return apperr.Validation("valor must be a non-negative number")
	}
	if p.DuracaoMinutos == 0 {
		p.DuracaoMinutos = DefaultDuration
	}
	if p.DuracaoMinutos < 0 || p.DuracaoMinutos > maxDuration {
		return apperr.Validation("duracao_minutos must be between 1 and %d", maxDuration)
	}
	return nil
}
