package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Notification, error)
	List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Notification, int, error)
	MarkRead(ctx context.Context, n *Notification) error
	MarkAllRead(ctx context.Context, empresaID tenant.ID, usuarioID *uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error
}
