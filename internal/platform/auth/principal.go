package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type contextKey string

const principalCtxKey contextKey = "principal"

// EmpresaRef is the tenant record attached to a resolved principal.
type EmpresaRef struct {
	ID   tenant.ID `json:"id"`
	Nome string    `json:"nome"`
}

func (e *EmpresaRef) TenantID() (tenant.ID, bool) {
	if e == nil {
		return 0, false
	}
	return e.ID, e.ID.Valid()
}

// Principal is the authenticated usuario.
type Principal struct {
	ID         uuid.UUID    `json:"id"`
	AuthUserID string       `json:"auth_user_id,omitempty"`
	Email      string       `json:"email"`
	Nome       string       `json:"nome"`
	Cargo      string       `json:"cargo"`
	EmpresaID  tenant.ID    `json:"empresa_id"`
	Ativo      bool         `json:"ativo"`
	Permissoes *Permissions `json:"permissoes,omitempty"`
	Empresa    *EmpresaRef  `json:"empresa,omitempty"`
}

func (p *Principal) TenantID() (tenant.ID, bool) {
	return p.EmpresaID, p.EmpresaID.Valid()
}

func (p *Principal) TenantEmpresa() tenant.Carrier {
	if p.Empresa == nil {
		return nil
	}
	return p.Empresa
}

// Effective returns the stored permission override, or the cargo's default set.
func (p *Principal) Effective() Permissions {
	if p.Permissoes != nil && !p.Permissoes.Empty() {
		return *p.Permissoes
	}
	perms, _ := PermissionsFor(p.Cargo)
	return perms
}

// PrincipalFromContext returns the principal attached by Middleware.
func PrincipalFromContext(c echo.Context) *Principal {
	p, _ := c.Get(tenant.PrincipalKey).(*Principal)
	return p
}

// PrincipalFromCtx returns the principal stored on the request context.
func PrincipalFromCtx(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalCtxKey).(*Principal)
	return p
}

// Attach stores p on both the echo context and the request context.
func Attach(c echo.Context, p *Principal) {
	c.Set(tenant.PrincipalKey, p)
	if p.Empresa != nil {
		c.Set(tenant.EmpresaKey, p.Empresa)
	}
	ctx := context.WithValue(c.Request().Context(), principalCtxKey, p)
	if id, ok := p.TenantID(); ok {
		ctx = tenant.WithID(ctx, id)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}
