// internal/tenant/iterator_test.go
//
// Unit-tests for single and chunked tenant traversal.
//
// fakeRepo follows the function-field mock pattern so each test injects
// exactly the behaviour it needs.

package tenant

import (
	"context"
	"errors"
	"testing"
)

// fakeRepo satisfies Repository with injectable functions.
type fakeRepo struct {
	byKey func(ctx context.Context, key string) (Entity, error)
	chunk func(ctx context.Context, offset, size int) ([]Entity, error)
}

func (f *fakeRepo) ByKey(ctx context.Context, key string) (Entity, error) {
	return f.byKey(ctx, key)
}

func (f *fakeRepo) Chunk(ctx context.Context, offset, size int) ([]Entity, error) {
	return f.chunk(ctx, offset, size)
}

func entities(keys ...string) []Entity {
	out := make([]Entity, len(keys))
	for i, k := range keys {
		out[i] = &fakeEntity{key: k, tree: map[string]any{}}
	}
	return out
}

func TestByID_NotFoundSkipsAction(t *testing.T) {
	repo := &fakeRepo{
		byKey: func(context.Context, string) (Entity, error) { return nil, ErrNotFound },
	}

	invoked := false
	err := NewIterator(repo, 10).ByID(context.Background(), "7", func(Entity) error {
		invoked = true
		return nil
	})

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if invoked {
		t.Fatal("action invoked for absent tenant")
	}
}

func TestByID_InvokesActionOnce(t *testing.T) {
	repo := &fakeRepo{
		byKey: func(_ context.Context, key string) (Entity, error) {
			return &fakeEntity{key: key}, nil
		},
	}

	var got []string
	err := NewIterator(repo, 10).ByID(context.Background(), "7", func(e Entity) error {
		got = append(got, e.Key())
		return nil
	})
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if len(got) != 1 || got[0] != "7" {
		t.Fatalf("actions = %v", got)
	}
}

func TestByChunk_ExactlyOncePerEntityInOrder(t *testing.T) {
	// Five tenants, chunk size two: batches of 2, 2, 1.
	all := entities("1", "2", "3", "4", "5")
	var offsets []int

	repo := &fakeRepo{
		chunk: func(_ context.Context, offset, size int) ([]Entity, error) {
			offsets = append(offsets, offset)
			if offset >= len(all) {
				return nil, nil
			}
			end := offset + size
			if end > len(all) {
				end = len(all)
			}
			return all[offset:end], nil
		},
	}

	var got []string
	err := NewIterator(repo, 2).ByChunk(context.Background(), func(e Entity) error {
		got = append(got, e.Key())
		return nil
	})
	if err != nil {
		t.Fatalf("ByChunk error: %v", err)
	}

	want := []string{"1", "2", "3", "4", "5"}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order broken at %d: %v", i, got)
		}
	}
	// The short final batch ends traversal; no probe past it.
	if len(offsets) != 3 || offsets[2] != 4 {
		t.Fatalf("offsets = %v", offsets)
	}
}

func TestByChunk_ActionErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	repo := &fakeRepo{
		chunk: func(_ context.Context, offset, _ int) ([]Entity, error) {
			if offset > 0 {
				t.Fatal("fetched past a failing batch")
			}
			return entities("1", "2"), nil
		},
	}

	err := NewIterator(repo, 2).ByChunk(context.Background(), func(Entity) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("action calls = %d, want 1", calls)
	}
}
