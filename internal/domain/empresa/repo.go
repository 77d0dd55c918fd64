package empresa

import (
	"context"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, e *Empresa) error
	GetByID(ctx context.Context, id tenant.ID) (*Empresa, error)
	First(ctx context.Context) (*Empresa, error)
	Update(ctx context.Context, e *Empresa) error
	List(ctx context.Context, limit, offset int) ([]*Empresa, int, error)
}
