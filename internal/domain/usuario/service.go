package usuario

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/empresa"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// Empresas is the subset of the empresa service usuarios depend on.
type Empresas interface {
	Create(ctx context.Context, e *empresa.Empresa) error
	First(ctx context.Context) (*empresa.Empresa, error)
}

type Service struct {
	repo     Repository
	empresas Empresas
	tx       db.TxRunner
	cache    auth.PrincipalCache
	logger   zerolog.Logger
}

func NewService(repo Repository, empresas Empresas, tx db.TxRunner, cache auth.PrincipalCache, logger zerolog.Logger) *Service {
	return &Service{repo: repo, empresas: empresas, tx: tx, cache: cache, logger: logger}
}

var (
	_ auth.PrincipalStore = (*Service)(nil)
	_ auth.Accounts       = (*Service)(nil)
)

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, in CreateInput) (*Usuario, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	nome := strings.TrimSpace(in.Nome)
	if nome == "" {
		return nil, apperr.Validation("nome is required")
	}
	if !auth.ValidCargo(in.Cargo) {
		return nil, apperr.Validation("cargo must be one of %s", strings.Join(auth.Cargos(), ", "))
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &Usuario{
		Email:        email,
		Nome:         nome,
		Cargo:        in.Cargo,
		EmpresaID:    empresaID,
		Ativo:        true,
		PasswordHash: hash,
		Permissoes:   in.Permissoes,
		Telefone:     in.Telefone,
		CRO:          in.CRO,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Usuario, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Usuario, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in UpdateInput) (*Usuario, error) {
	var u *Usuario
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.repo.GetByID(ctx, id, empresaID)
		if err != nil {
			return err
		}
		if nome := strings.TrimSpace(in.Nome); nome != "" {
			u.Nome = nome
		}
		if in.Email != "" {
			if u.Email, err = normalizeEmail(in.Email); err != nil {
				return err
			}
		}
		if in.Cargo != "" {
			if !auth.ValidCargo(in.Cargo) {
				return apperr.Validation("cargo must be one of %s", strings.Join(auth.Cargos(), ", "))
			}
			u.Cargo = in.Cargo
		}
		if in.Password != nil {
			if u.PasswordHash, err = auth.HashPassword(*in.Password); err != nil {
				return err
			}
		}
		if in.Telefone != nil {
			u.Telefone = in.Telefone
		}
		if in.CRO != nil {
			u.CRO = in.CRO
		}
		if in.Permissoes != nil {
			u.Permissoes = in.Permissoes
		}
		return s.repo.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, u)
	return u, nil
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, empresaID tenant.ID, ativo bool) (*Usuario, error) {
	var u *Usuario
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		u.Ativo = ativo
		return s.repo.SetStatus(ctx, id, empresaID, ativo)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, u)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	var u *Usuario
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, u)
	return nil
}

func (s *Service) invalidate(ctx context.Context, u *Usuario) {
	if s.cache == nil {
		return
	}
	for _, subject := range u.subjects() {
		if err := s.cache.Invalidate(ctx, subject); err != nil {
			s.logger.Warn().Err(err).Str("usuario_id", u.ID.String()).Msg("invalidate principal cache")
		}
	}
}

// -- auth.PrincipalStore --

func (s *Service) FindBySubject(ctx context.Context, subject string) (*auth.Principal, error) {
	u, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}

func (s *Service) BindSubject(ctx context.Context, id uuid.UUID, subject string) error {
	return s.repo.BindSubject(ctx, id, subject)
}

func (s *Service) FirstEmpresa(ctx context.Context) (*auth.EmpresaRef, error) {
	e, err := s.empresas.First(ctx)
	if err != nil {
		return nil, err
	}
	return &auth.EmpresaRef{ID: e.ID, Nome: e.Nome}, nil
}

func (s *Service) Provision(ctx context.Context, p *auth.Principal) error {
	subject := p.AuthUserID
	u := &Usuario{
		ID:         p.ID,
		AuthUserID: &subject,
		Email:      strings.ToLower(p.Email),
		Nome:       p.Nome,
		Cargo:      p.Cargo,
		EmpresaID:  p.EmpresaID,
		Ativo:      p.Ativo,
		Permissoes: p.Permissoes,
	}
	if u.Nome == "" {
		u.Nome = subject
	}
	return s.repo.Create(ctx, u)
}

// -- auth.Accounts --

func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.Principal, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	if !u.Ativo {
		return nil, apperr.Unauthenticated("inactive user")
	}
	return u.Principal(), nil
}

// Register creates an empresa and its first admin usuario atomically.
func (s *Service) Register(ctx context.Context, in auth.RegisterInput) (*auth.Principal, error) {
	var u *Usuario
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		e := &empresa.Empresa{Nome: in.EmpresaNome}
		if in.CNPJ != "" {
			cnpj := in.CNPJ
			e.CNPJ = &cnpj
		}
		if err := s.empresas.Create(ctx, e); err != nil {
			return err
		}
		var err error
		u, err = s.Create(ctx, e.ID, CreateInput{
			Nome:     in.Nome,
			Email:    in.Email,
			Password: in.Password,
			Cargo:    auth.CargoAdmin,
		})
		if err != nil {
			return err
		}
		u.EmpresaNome = e.Nome
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register empresa: %w", err)
	}
	s.logger.Info().
		Str("empresa_id", u.EmpresaID.String()).
		Str("usuario_id", u.ID.String()).
		Msg("empresa registered")
	return u.Principal(), nil
}

func normalizeEmail(v string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(v))
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("email is invalid")
	}
	return email, nil
}
