// internal/runner/state.go
//
// Migration-state repository.
//
// Context
// -------
// State records which migrations have been applied in the tracking
// table the resolver named for the tenant.  The schema is two columns,
// portable across MySQL, Postgres, and SQLite:
//
//	migration VARCHAR(191) PRIMARY KEY
//	batch     INTEGER NOT NULL
//
// Rows applied in one Run share a batch number, so Rollback can revert
// exactly the last batch.
//
// Notes
// -----
//   - The table name is interpolated into SQL text.  It comes from the
//     operator-controlled naming templates in driver config, not from
//     tenant input, and binding rejects unresolved placeholders.
//   - Value bindvars are written as "?" and passed through sqlx.Rebind.
package runner

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// State is the applied-migration repository bound to one table.
type State struct {
	db    *sqlx.DB
	table string
}

// NewState binds a repository to db and table.
func NewState(db *sqlx.DB, table string) *State {
	return &State{db: db, table: table}
}

// Table returns the tracking-table name the repository is bound to.
func (s *State) Table() string { return s.table }

// Ensure creates the tracking table when absent.
func (s *State) Ensure(ctx context.Context) error {
	q := fmt.Sprintf(`
	    CREATE TABLE IF NOT EXISTS %s (
	        migration VARCHAR(191) NOT NULL PRIMARY KEY,
	        batch     INTEGER      NOT NULL
	    )`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("runner: ensure %s: %w", s.table, err)
	}
	return nil
}

// Applied returns the set of recorded migration names.
func (s *State) Applied(ctx context.Context) (map[string]bool, error) {
	q := fmt.Sprintf(`SELECT migration FROM %s`, s.table)

	var names []string
	if err := s.db.SelectContext(ctx, &names, q); err != nil {
		return nil, fmt.Errorf("runner: applied in %s: %w", s.table, err)
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

// LastBatch returns the highest recorded batch number, 0 when empty.
func (s *State) LastBatch(ctx context.Context) (int, error) {
	q := fmt.Sprintf(`SELECT COALESCE(MAX(batch), 0) FROM %s`, s.table)

	var batch int
	if err := s.db.GetContext(ctx, &batch, q); err != nil {
		return 0, fmt.Errorf("runner: last batch in %s: %w", s.table, err)
	}
	return batch, nil
}

// Batch returns the migration names recorded under batch, in reverse
// lexical order so rollback undoes them newest-first.
func (s *State) Batch(ctx context.Context, batch int) ([]string, error) {
	q := s.db.Rebind(fmt.Sprintf(
		`SELECT migration FROM %s WHERE batch = ? ORDER BY migration DESC`, s.table))

	var names []string
	if err := s.db.SelectContext(ctx, &names, q, batch); err != nil {
		return nil, fmt.Errorf("runner: batch %d in %s: %w", batch, s.table, err)
	}
	return names, nil
}

// Record inserts one applied migration inside tx.
func (s *State) Record(ctx context.Context, tx *sqlx.Tx, name string, batch int) error {
	q := tx.Rebind(fmt.Sprintf(
		`INSERT INTO %s (migration, batch) VALUES (?, ?)`, s.table))
	if _, err := tx.ExecContext(ctx, q, name, batch); err != nil {
		return fmt.Errorf("runner: record %s in %s: %w", name, s.table, err)
	}
	return nil
}

// Remove deletes one recorded migration inside tx.
func (s *State) Remove(ctx context.Context, tx *sqlx.Tx, name string) error {
	q := tx.Rebind(fmt.Sprintf(
		`DELETE FROM %s WHERE migration = ?`, s.table))
	if _, err := tx.ExecContext(ctx, q, name); err != nil {
		return fmt.Errorf("runner: remove %s from %s: %w", name, s.table, err)
	}
	return nil
}
