package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/platform/apperr"
)

// PrincipalStore is the persistence the resolver needs. Lookups return an
// error wrapping apperr.ErrNotFound when nothing matches.
type PrincipalStore interface {
	FindBySubject(ctx context.Context, subject string) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	BindSubject(ctx context.Context, id uuid.UUID, subject string) error
	FirstEmpresa(ctx context.Context) (*EmpresaRef, error)
	Provision(ctx context.Context, p *Principal) error
}

// ResolverConfig configures principal resolution.
type ResolverConfig struct {
	DevTokens   bool
	DefaultRole string
}

// Resolver maps bearer tokens to active principals bound to an empresa.
type Resolver struct {
	store    PrincipalStore
	verifier TokenVerifier
	cache    PrincipalCache
	cfg      ResolverConfig
	logger   zerolog.Logger
}

func NewResolver(store PrincipalStore, verifier TokenVerifier, cache PrincipalCache, cfg ResolverConfig, logger zerolog.Logger) *Resolver {
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = CargoRecepcionista
	}
	return &Resolver{store: store, verifier: verifier, cache: cache, cfg: cfg, logger: logger}
}

// Resolve returns the principal for token or an unauthenticated error.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	if IsDevToken(token) {
		if !r.cfg.DevTokens {
			return nil, apperr.Unauthenticated("invalid token")
		}
		p, err := ParseDevToken(token)
		if err != nil {
			return nil, apperr.Unauthenticated(err.Error())
		}
		return p, nil
	}

	id, err := r.verifier.Verify(ctx, token)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token")
	}

	if r.cache != nil {
		if p, ok := r.cache.Get(ctx, id.Subject); ok {
			return checkActive(p)
		}
	}

	p, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := checkActive(p); err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, id.Subject, p); err != nil {
			r.logger.Warn().Err(err).Str("subject", id.Subject).Msg("cache principal")
		}
	}
	return p, nil
}

func (r *Resolver) lookup(ctx context.Context, id *Identity) (*Principal, error) {
	p, err := r.store.FindBySubject(ctx, id.Subject)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("find principal by subject: %w", err)
	}

	if id.Email != "" {
		p, err = r.store.FindByEmail(ctx, id.Email)
		if err == nil {
			if err := r.store.BindSubject(ctx, p.ID, id.Subject); err != nil {
				return nil, fmt.Errorf("bind subject: %w", err)
			}
			p.AuthUserID = id.Subject
			return p, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("find principal by email: %w", err)
		}
	}

	return r.provision(ctx, id)
}

func (r *Resolver) provision(ctx context.Context, id *Identity) (*Principal, error) {
	empresa, err := r.store.FirstEmpresa(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("no empresa available")
		}
		return nil, fmt.Errorf("find default empresa: %w", err)
	}

	perms, _ := PermissionsFor(r.cfg.DefaultRole)
	nome, _, _ := strings.Cut(id.Email, "@")
	p := &Principal{
		ID:         uuid.New(),
		AuthUserID: id.Subject,
		Email:      id.Email,
		Nome:       nome,
		Cargo:      r.cfg.DefaultRole,
		EmpresaID:  empresa.ID,
		Ativo:      true,
		Permissoes: &perms,
		Empresa:    empresa,
	}
	if err := r.store.Provision(ctx, p); err != nil {
		return nil, fmt.Errorf("provision principal: %w", err)
	}
	r.logger.Info().
		Str("subject", id.Subject).
		Str("empresa_id", empresa.ID.String()).
		Msg("provisioned principal")
	return p, nil
}

func checkActive(p *Principal) (*Principal, error) {
	if !p.Ativo {
		return nil, apperr.Unauthenticated("inactive user")
	}
	if !p.EmpresaID.Valid() {
		return nil, apperr.Unauthenticated("user has no empresa")
	}
	return p, nil
}
