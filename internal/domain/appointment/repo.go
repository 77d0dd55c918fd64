package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error
	List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Appointment, int, error)
}
