// internal/runner/cache_test.go
//
// Unit-tests for per-table runner memoization.

package runner

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

// countingRunner records nothing; identity is what the tests check.
type countingRunner struct{ table string }

func (r *countingRunner) Run(context.Context) (int, error)      { return 0, nil }
func (r *countingRunner) Rollback(context.Context) (int, error) { return 0, nil }

func TestFor_SameTableSharesOneRunner(t *testing.T) {
	raw, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	built := 0
	cache := NewCache(func(state *State, _ *sqlx.DB, _ Source) Runner {
		built++
		return &countingRunner{table: state.Table()}
	})

	a, err := cache.For("t1", db, "migrations")
	if err != nil {
		t.Fatalf("For error: %v", err)
	}
	b, err := cache.For("t1", db, "migrations")
	if err != nil {
		t.Fatalf("For error: %v", err)
	}

	if a != b {
		t.Fatal("same table produced distinct runners")
	}
	if built != 1 {
		t.Fatalf("factory calls = %d, want 1", built)
	}
}

func TestFor_DistinctTablesDistinctRunners(t *testing.T) {
	raw, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	cache := NewCache(func(state *State, _ *sqlx.DB, _ Source) Runner {
		return &countingRunner{table: state.Table()}
	})

	a, _ := cache.For("t1", db, "migrations")
	b, _ := cache.For("t2", db, "migrations")

	if a == b {
		t.Fatal("distinct tables share a runner")
	}
	if a.(*countingRunner).table != "t1" || b.(*countingRunner).table != "t2" {
		t.Fatalf("tables: %q, %q", a.(*countingRunner).table, b.(*countingRunner).table)
	}
	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}
}
