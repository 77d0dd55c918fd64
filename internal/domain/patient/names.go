package patient

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// nameBatch bounds the ids sent in one lookup and nameWorkers the lookups in
// flight for a single list request.
const (
	nameBatch   = 25
	nameWorkers = 4
)

// NameSource looks up patient names of one empresa.
type NameSource interface {
	Names(ctx context.Context, empresaID tenant.ID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// ResolveNames fans the distinct ids out over batched lookups and merges the
// answers by id. Lookups run concurrently unless ctx is pinned to a single
// connection. Ids the source does not know are left out.
func ResolveNames(ctx context.Context, src NameSource, empresaID tenant.ID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id != uuid.Nil && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	out := make(map[uuid.UUID]string, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := db.Group(ctx, nameWorkers)
	for start := 0; start < len(unique); start += nameBatch {
		end := start + nameBatch
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]
		g.Go(func() error {
			names, err := src.Names(gctx, empresaID, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			for id, n := range names {
				out[id] = n
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
