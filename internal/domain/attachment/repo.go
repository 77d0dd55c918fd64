package attachment

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, a *Attachment) error
	GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Attachment, error)
	Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error
	List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Attachment, int, error)
}
