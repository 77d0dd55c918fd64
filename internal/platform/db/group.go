package db

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pinned reports whether queries made with ctx go to a single connection,
// either the tenant session connection or an open transaction.
func Pinned(ctx context.Context) bool {
	return TxFromContext(ctx) != nil || ConnFromContext(ctx) != nil
}

// Group returns an errgroup for fanning queries out. A pgx connection serves
// one query at a time, so on a pinned context the group runs its goroutines
// one after another. limit bounds the goroutines in flight otherwise; zero
// means no bound.
func Group(ctx context.Context, limit int) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	switch {
	case Pinned(ctx):
		g.SetLimit(1)
	case limit > 0:
		g.SetLimit(limit)
	}
	return g, gctx
}
