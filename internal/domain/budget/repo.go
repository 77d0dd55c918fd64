package budget

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, b *Budget) error
	GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Budget, error)
	Update(ctx context.Context, b *Budget) error
	UpdateStatus(ctx context.Context, b *Budget) error
	Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error
	List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Budget, int, error)

	AddItems(ctx context.Context, orcamentoID uuid.UUID, items []*Item) error
	Items(ctx context.Context, orcamentoID uuid.UUID) ([]*Item, error)
	DeleteItems(ctx context.Context, orcamentoID uuid.UUID) (int64, error)
}
