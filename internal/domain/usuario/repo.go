package usuario

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, u *Usuario) error
	GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Usuario, error)
	Update(ctx context.Context, u *Usuario) error
	SetStatus(ctx context.Context, id uuid.UUID, empresaID tenant.ID, ativo bool) error
	Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error
	List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Usuario, int, error)

	// Identity lookups run before a tenant is known.
	GetBySubject(ctx context.Context, subject string) (*Usuario, error)
	GetByEmail(ctx context.Context, email string) (*Usuario, error)
	BindSubject(ctx context.Context, id uuid.UUID, subject string) error
}
