package treatmentplan

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	UpdateProgress(ctx context.Context, p *Plan) error
	Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error
	List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Plan, int, error)

	// LockPlan serializes progress updates of one plan for the rest of the
	// transaction.
	LockPlan(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, it *Item) error
	GetItem(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Item, error)
	Items(ctx context.Context, planoID uuid.UUID) ([]*Item, error)
	UpdateItemStatus(ctx context.Context, it *Item) error

	AddSessions(ctx context.Context, sessions []*Session) error
	Sessions(ctx context.Context, planoID uuid.UUID) ([]*Session, error)
	CompleteSession(ctx context.Context, s *Session) error
}
