package tenant

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/apperr"
)

type contextKey string

// Keys under which the resolution middleware attaches the caller.
const (
	PrincipalKey = "principal"
	EmpresaKey   = "empresa"

	idKey contextKey = "empresa_id"
)

// Carrier is anything that carries an empresa id, such as a principal or an
// attached empresa record.
type Carrier interface {
	TenantID() (ID, bool)
}

// Nested is implemented by principals that embed their empresa record.
type Nested interface {
	TenantEmpresa() Carrier
}

// Require returns the resolved empresa id of the request. It looks at the
// principal's empresa id, then the separately attached empresa, then the
// principal's nested empresa.
func Require(c echo.Context) (ID, error) {
	principal := c.Get(PrincipalKey)

	if p, ok := principal.(Carrier); ok {
		if id, ok := p.TenantID(); ok && id.Valid() {
			return id, nil
		}
	}
	if e, ok := c.Get(EmpresaKey).(Carrier); ok {
		if id, ok := e.TenantID(); ok && id.Valid() {
			return id, nil
		}
	}
	if n, ok := principal.(Nested); ok {
		if e := n.TenantEmpresa(); e != nil {
			if id, ok := e.TenantID(); ok && id.Valid() {
				return id, nil
			}
		}
	}
	return 0, apperr.Validation("empresa id not found")
}

// WithID stores the empresa id in ctx.
func WithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// FromContext returns the empresa id stored by WithID.
func FromContext(ctx context.Context) (ID, bool) {
	id, ok := ctx.Value(idKey).(ID)
	return id, ok && id.Valid()
}
