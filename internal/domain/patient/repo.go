package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error
	List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Patient, int, error)

	// EmpresaOf returns the owning empresa of a patient regardless of tenant.
	EmpresaOf(ctx context.Context, id uuid.UUID) (tenant.ID, error)
	// Names returns id -> nome for the given patients of one empresa.
	Names(ctx context.Context, empresaID tenant.ID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
