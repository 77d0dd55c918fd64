package subscription

import (
	"context"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	Get(ctx context.Context, empresaID tenant.ID) (*Subscription, error)
	// Lock is Get with the row locked until the transaction ends.
	Lock(ctx context.Context, empresaID tenant.ID) (*Subscription, error)
	Upsert(ctx context.Context, s *Subscription) error
}
