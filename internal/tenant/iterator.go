// internal/tenant/iterator.go
//
// Tenant traversal: single lookup and chunked bulk iteration.
//
// Context
// -------
// Migration commands run either against one tenant ("migrate --tenant 7")
// or against the whole registry ("migrate --all").  The Iterator owns
// that traversal and nothing else: it fetches entities from the
// Repository and hands each one to a caller-supplied action.  The next
// entity or batch is not fetched until the current action returns, so
// chunked mode holds at most one batch in memory.
//
// Traversal is forward-only with no checkpointing.  A crash mid-run is
// resumed by re-invoking the whole traversal; the migration runner's
// state table makes re-processing already-migrated tenants a no-op.
//
// Notes
// -----
//   - Strictly sequential.  Concurrent tenant processing would race on
//     the config store's default-connection slot (see internal/resolver).
package tenant

import (
	"context"
	"fmt"
)

// DefaultChunkSize is the batch size used when the config leaves
// iteration.chunk_size unset.
const DefaultChunkSize = 100

// Repository is the persistence collaborator the Iterator pulls tenants
// from.  ByKey fails with ErrNotFound (possibly wrapped) when the key is
// absent.  Chunk returns up to size entities starting at offset, in a
// stable storage order; a short or empty slice ends the traversal.
type Repository interface {
	ByKey(ctx context.Context, key string) (Entity, error)
	Chunk(ctx context.Context, offset, size int) ([]Entity, error)
}

// Action is invoked once per tenant.  Returning an error aborts the
// traversal immediately; remaining tenants are not visited.
type Action func(Entity) error

// Iterator drives tenant traversal over a Repository.
type Iterator struct {
	repo Repository
	size int
}

// NewIterator builds an Iterator with the given chunk size.  Sizes < 1
// fall back to DefaultChunkSize.
func NewIterator(repo Repository, size int) *Iterator {
	if size < 1 {
		size = DefaultChunkSize
	}
	return &Iterator{repo: repo, size: size}
}

// ByID fetches exactly one tenant and invokes action on it.  The action
// is never invoked when the lookup fails.  No retry.
func (it *Iterator) ByID(ctx context.Context, key string, action Action) error {
	ent, err := it.repo.ByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("tenant %q: %w", key, err)
	}
	return action(ent)
}

// ByChunk walks the whole registry in fixed-size batches, invoking
// action once per entity in repository order.  The traversal stops at
// the first action or repository error.
func (it *Iterator) ByChunk(ctx context.Context, action Action) error {
	for offset := 0; ; offset += it.size {
		batch, err := it.repo.Chunk(ctx, offset, it.size)
		if err != nil {
			return fmt.Errorf("tenant chunk at offset %d: %w", offset, err)
		}
		for _, ent := range batch {
			if err := action(ent); err != nil {
				return err
			}
		}
		if len(batch) < it.size {
			return nil
		}
	}
}
