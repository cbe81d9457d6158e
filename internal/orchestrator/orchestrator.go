// internal/orchestrator/orchestrator.go
//
// Composition root for per-tenant migration runs.
//
// Context
// -------
// The orchestrator wires the pipeline end to end: the iterator hands it
// tenants, the connection resolver activates each tenant's connection
// (synthesizing config store entries on first sight), the table
// resolver names the tracking table, and the runner cache returns the
// runner bound to that table.  Callers see three verbs: MigrateOne,
// MigrateAll, and RollbackOne.
//
// Processing is strictly sequential; the default-connection slot in the
// config store is single-writer by that precondition.  Every handle the
// runners use is passed explicitly, so the slot is informational only.
//
// Notes
// -----
//   - All collaborator bindings are checked at construction: unknown
//     resolver names and model mismatches fail before any tenant is
//     touched, never per call.
//   - Each orchestrator is scoped to one command invocation and carries a
//     run ID stamped on its log lines.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/stratum/internal/config"
	"github.com/yanizio/stratum/internal/confstore"
	"github.com/yanizio/stratum/internal/database"
	"github.com/yanizio/stratum/internal/metrics"
	"github.com/yanizio/stratum/internal/resolver"
	"github.com/yanizio/stratum/internal/runner"
	"github.com/yanizio/stratum/internal/tenant"
)

// ErrInvalidModel is returned when a driver's configured `model` does
// not match the entity model the registry serves.
var ErrInvalidModel = errors.New("configured tenant model does not match the registry")

// ErrUnknownDriver is returned for a driver name absent from config.
var ErrUnknownDriver = errors.New("unknown tenancy driver")

// ModelNamer is an optional Repository capability: registries that know
// their entity model expose it so driver config can be checked against
// it up front.
type ModelNamer interface {
	ModelName() string
}

// Options collects the orchestrator's collaborators.  Config, Store,
// Handles, and Repo are required; the rest default sensibly.
type Options struct {
	Config  *config.Config
	Store   *confstore.Store
	Handles database.Handles
	Repo    tenant.Repository

	Data    *tenant.DataCache         // defaults to a fresh cache
	Synths  map[string]resolver.Synth // resolver callables by configured name
	Factory runner.Factory            // defaults to runner.Default
	Log     *zap.SugaredLogger        // defaults to the global logger
}

// Orchestrator drives migration runs across tenants.
type Orchestrator struct {
	cfg     *config.Config
	handles database.Handles
	data    *tenant.DataCache
	tables  *resolver.Tables
	conns   *resolver.Connections
	runners *runner.Cache
	iter    *tenant.Iterator
	log     *zap.SugaredLogger
	runID   string
}

// New validates the wiring and returns a run-scoped orchestrator.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Config == nil:
		return nil, errors.New("orchestrator: Config is required")
	case opts.Store == nil:
		return nil, errors.New("orchestrator: Store is required")
	case opts.Handles == nil:
		return nil, errors.New("orchestrator: Handles is required")
	case opts.Repo == nil:
		return nil, errors.New("orchestrator: Repo is required")
	}

	if opts.Data == nil {
		opts.Data = tenant.NewDataCache()
	}
	if opts.Factory == nil {
		opts.Factory = runner.Default
	}
	if opts.Log == nil {
		opts.Log = zap.S()
	}

	// Bind-time checks: every driver's resolver callable must be
	// registered, and its model must match the registry.
	for name, drv := range opts.Config.Drivers {
		if drv.Connection != nil {
			if _, ok := opts.Synths[drv.Connection.Resolver]; !ok {
				return nil, fmt.Errorf("orchestrator: driver %q: no connection resolver registered under %q",
					name, drv.Connection.Resolver)
			}
		}
		if drv.Model != "" {
			mn, ok := opts.Repo.(ModelNamer)
			if !ok || mn.ModelName() != drv.Model {
				return nil, fmt.Errorf("%w: driver %q wants %q", ErrInvalidModel, name, drv.Model)
			}
		}
	}

	runID := uuid.NewString()
	return &Orchestrator{
		cfg:     opts.Config,
		handles: opts.Handles,
		data:    opts.Data,
		tables:  resolver.NewTables(opts.Data),
		conns:   resolver.NewConnections(opts.Store, opts.Data, opts.Synths),
		runners: runner.NewCache(opts.Factory),
		iter:    tenant.NewIterator(opts.Repo, opts.Config.Iteration.ChunkSize),
		log:     opts.Log.With("run_id", runID),
		runID:   runID,
	}, nil
}

// RunID identifies this orchestration run in logs.
func (o *Orchestrator) RunID() string { return o.runID }

// MigratorFor activates e's connection under the named driver and
// returns the runner bound to its tracking table.  Exposed for callers
// that need runner operations beyond the three verbs below.
func (o *Orchestrator) MigratorFor(ctx context.Context, e tenant.Entity, driverName string) (runner.Runner, error) {
	drv, err := o.driver(driverName)
	if err != nil {
		return nil, err
	}

	conn, err := o.conns.Activate(ctx, e, drv)
	if err != nil {
		return nil, err
	}
	db, err := o.handles.Get(ctx, conn)
	if err != nil {
		return nil, err
	}
	table, err := o.tables.Resolve(e, driverName, drv)
	if err != nil {
		return nil, err
	}

	o.log.Debugw("tenant context resolved",
		"tenant", e.Key(), "driver", driverName, "connection", conn, "table", table)
	return o.runners.For(table, db, drv.Path)
}

// MigrateOne migrates a single tenant by key and reports how many
// migrations were applied.
func (o *Orchestrator) MigrateOne(ctx context.Context, driverName, key string) (int, error) {
	applied := 0
	err := o.iter.ByID(ctx, key, o.migrateAction(ctx, driverName, &applied))
	return applied, err
}

// MigrateAll migrates every tenant in registry order and reports the
// total number of migrations applied.  The run stops at the first
// failing tenant.
func (o *Orchestrator) MigrateAll(ctx context.Context, driverName string) (int, error) {
	applied := 0
	err := o.iter.ByChunk(ctx, o.migrateAction(ctx, driverName, &applied))
	return applied, err
}

// RollbackOne reverts the most recent batch for a single tenant.
func (o *Orchestrator) RollbackOne(ctx context.Context, driverName, key string) (int, error) {
	reverted := 0
	err := o.iter.ByID(ctx, key, func(e tenant.Entity) error {
		r, err := o.MigratorFor(ctx, e, driverName)
		if err != nil {
			metrics.TenantErrorsTotal.Inc()
			return err
		}
		n, err := r.Rollback(ctx)
		reverted += n
		if err != nil {
			metrics.TenantErrorsTotal.Inc()
			return fmt.Errorf("tenant %q: %w", e.Key(), err)
		}
		metrics.TenantsProcessedTotal.Inc()
		o.log.Infow("tenant rolled back", "tenant", e.Key(), "reverted", n)
		return nil
	})
	return reverted, err
}

func (o *Orchestrator) migrateAction(ctx context.Context, driverName string, applied *int) tenant.Action {
	return func(e tenant.Entity) error {
		r, err := o.MigratorFor(ctx, e, driverName)
		if err != nil {
			metrics.TenantErrorsTotal.Inc()
			return err
		}
		n, err := r.Run(ctx)
		*applied += n
		if err != nil {
			metrics.TenantErrorsTotal.Inc()
			return fmt.Errorf("tenant %q: %w", e.Key(), err)
		}
		metrics.TenantsProcessedTotal.Inc()
		o.log.Infow("tenant migrated", "tenant", e.Key(), "applied", n)
		return nil
	}
}

// driver looks up one driver block from config.
func (o *Orchestrator) driver(name string) (config.Driver, error) {
	drv, ok := o.cfg.Drivers[name]
	if !ok {
		return config.Driver{}, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
	return drv, nil
}
