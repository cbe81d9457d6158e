// internal/runner/runner.go
//
// Migration runner contract and the default SQL implementation.
//
// Context
// -------
// A Runner applies or reverts schema changes for one tracking table on
// one database handle.  The orchestrator only constructs and caches
// runners; everything about execution lives here.  SQLRunner executes
// each migration file inside its own transaction and records it in the
// same transaction, so a failed statement leaves no half-recorded row.
//
// Engines that auto-commit DDL (MySQL) still benefit from the
// transaction for the state-row write; the migration body itself may
// not be atomic there.  That is an engine property, not something the
// runner can paper over.
package runner

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Runner applies and reverts migrations for one tracking table.
type Runner interface {
	// Run applies every pending migration and returns how many ran.
	Run(ctx context.Context) (int, error)
	// Rollback reverts the most recent batch and returns how many
	// migrations were reverted.
	Rollback(ctx context.Context) (int, error)
}

// Factory constructs a runner from its three collaborators: the state
// repository bound to the resolved table, the tenant's database handle,
// and the migration-file source.  Cache calls it once per distinct
// table.
type Factory func(state *State, db *sqlx.DB, src Source) Runner

// Default is the Factory for SQLRunner.
func Default(state *State, db *sqlx.DB, src Source) Runner {
	return &SQLRunner{state: state, db: db, src: src}
}

// SQLRunner executes plain SQL migration files.
type SQLRunner struct {
	state *State
	db    *sqlx.DB
	src   Source
}

// Run applies pending migrations in lexical order under one new batch
// number.  Already-recorded migrations are skipped, so re-running after
// a crash resumes where the last completed file left off.
func (r *SQLRunner) Run(ctx context.Context) (int, error) {
	if err := r.state.Ensure(ctx); err != nil {
		return 0, err
	}

	applied, err := r.state.Applied(ctx)
	if err != nil {
		return 0, err
	}
	last, err := r.state.LastBatch(ctx)
	if err != nil {
		return 0, err
	}

	all, err := r.src.Migrations()
	if err != nil {
		return 0, err
	}

	batch := last + 1
	ran := 0
	for _, m := range all {
		if applied[m.Name] {
			continue
		}
		if err := r.apply(ctx, m, batch); err != nil {
			return ran, err
		}
		zap.S().Infow("migration applied", "table", r.state.Table(), "migration", m.Name, "batch", batch)
		ran++
	}
	return ran, nil
}

func (r *SQLRunner) apply(ctx context.Context, m Migration, batch int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("runner: begin %s: %w", m.Name, err)
	}

	if _, err := tx.ExecContext(ctx, m.Up); err != nil {
		tx.Rollback()
		return fmt.Errorf("runner: apply %s: %w", m.Name, err)
	}
	if err := r.state.Record(ctx, tx, m.Name, batch); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Rollback reverts the most recent batch, newest migration first.
// Migrations without a down file abort the rollback before any
// statement runs for them.
func (r *SQLRunner) Rollback(ctx context.Context) (int, error) {
	if err := r.state.Ensure(ctx); err != nil {
		return 0, err
	}

	last, err := r.state.LastBatch(ctx)
	if err != nil {
		return 0, err
	}
	if last == 0 {
		return 0, nil
	}

	names, err := r.state.Batch(ctx, last)
	if err != nil {
		return 0, err
	}

	all, err := r.src.Migrations()
	if err != nil {
		return 0, err
	}
	downs := make(map[string]string, len(all))
	for _, m := range all {
		downs[m.Name] = m.Down
	}

	reverted := 0
	for _, name := range names {
		down, ok := downs[name]
		if !ok || down == "" {
			return reverted, fmt.Errorf("runner: no down migration for %s", name)
		}
		if err := r.revert(ctx, name, down); err != nil {
			return reverted, err
		}
		zap.S().Infow("migration reverted", "table", r.state.Table(), "migration", name, "batch", last)
		reverted++
	}
	return reverted, nil
}

func (r *SQLRunner) revert(ctx context.Context, name, down string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("runner: begin revert %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, down); err != nil {
		tx.Rollback()
		return fmt.Errorf("runner: revert %s: %w", name, err)
	}
	if err := r.state.Remove(ctx, tx, name); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
