// internal/resolver/connection.go
//
// Per-tenant connection activation.
//
// Context
// -------
// Activate decides which named connection a tenant's migrations run on,
// makes sure the config store holds a definition for it, and points the
// store's default-connection slot at it.  Definitions missing from the
// store are synthesized by a resolver callable registered per driver,
// then written back, so re-activating the same tenant never synthesizes
// twice.
//
// The default slot is a single mutable routing token.  Downstream code
// receives an explicit *sqlx.DB from database.Pool instead of reading
// the slot, but the slot is still written so external tooling can
// observe which tenant was activated last.  Strictly sequential tenant
// processing is a precondition; see internal/tenant/iterator.go.
//
// Notes
// -----
//   - Resolver callables are bound at construction time from the names in
//     driver config, never looked up per call.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanizio/stratum/internal/config"
	"github.com/yanizio/stratum/internal/confstore"
	"github.com/yanizio/stratum/internal/metrics"
	"github.com/yanizio/stratum/internal/template"
	"github.com/yanizio/stratum/internal/tenant"
)

// ErrSynthesis is wrapped around any failure to synthesize a connection
// definition.  Activation never falls back to the store default in that
// case; doing so would route a tenant's migrations to the wrong
// database.
var ErrSynthesis = errors.New("connection synthesis failed")

// Synth is the connection-resolver callable configured per driver.  It
// receives the tenant entity, the driver's connection block, and the
// bound connection name, and returns the definition to store.
type Synth func(ctx context.Context, e tenant.Entity, tpl config.ConnectionTemplate, connection string) (confstore.ConnectionDef, error)

// TemplateSynth returns a Synth that binds the driver's connection
// template against the tenant's attributes and uses the result as the
// DSN, on the driver's configured engine (default mysql).  It covers
// the common case where the per-tenant DSN is fully derivable from
// attributes, e.g.
// "app:{entity.db_password}@tcp(db-{id}.internal:3306)/tenant_{id}".
func TemplateSynth(data *tenant.DataCache) Synth {
	return func(_ context.Context, e tenant.Entity, tpl config.ConnectionTemplate, _ string) (confstore.ConnectionDef, error) {
		if tpl.Template == "" {
			return confstore.ConnectionDef{}, errors.New("template synth: driver has no connection template")
		}
		dsn, err := template.Bind(tpl.Template, data.AttributesFor(e))
		if err != nil {
			return confstore.ConnectionDef{}, err
		}
		engine := tpl.Engine
		if engine == "" {
			engine = "mysql"
		}
		return confstore.ConnectionDef{Driver: engine, DSN: dsn}, nil
	}
}

// Connections activates tenant connections against the config store.
type Connections struct {
	store  *confstore.Store
	data   *tenant.DataCache
	synths map[string]Synth
}

// NewConnections binds the store, the attribute cache, and the resolver
// callables registered by name.
func NewConnections(store *confstore.Store, data *tenant.DataCache, synths map[string]Synth) *Connections {
	if synths == nil {
		synths = map[string]Synth{}
	}
	return &Connections{store: store, data: data, synths: synths}
}

// Synth returns the callable registered under name.
func (c *Connections) Synth(name string) (Synth, bool) {
	s, ok := c.synths[name]
	return s, ok
}

// Activate resolves, defines if necessary, and selects the connection
// for e under the named driver, returning the bound connection name.
//
// Idempotent: a second activation for the same tenant and config binds
// to the same name, finds the definition already present, and only
// rewrites the default slot.
func (c *Connections) Activate(ctx context.Context, e tenant.Entity, cfg config.Driver) (string, error) {
	candidate := cfg.Database
	if candidate == "" {
		candidate = c.store.DefaultConnection()
	}
	if cfg.Connection != nil {
		candidate = cfg.Connection.Name
	}

	candidate, err := template.Bind(candidate, c.data.AttributesFor(e))
	if err != nil {
		return "", err
	}
	if candidate == "" {
		return "", fmt.Errorf("connection resolution for tenant %q produced an empty name", e.Key())
	}

	if !c.store.HasConnection(candidate) && cfg.Connection != nil {
		synth, ok := c.synths[cfg.Connection.Resolver]
		if !ok {
			return "", fmt.Errorf("%w: no resolver registered under %q", ErrSynthesis, cfg.Connection.Resolver)
		}

		def, err := synth(ctx, e, *cfg.Connection, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: tenant %q connection %q: %v", ErrSynthesis, e.Key(), candidate, err)
		}
		if !def.Valid() {
			return "", fmt.Errorf("%w: resolver %q returned an incomplete definition for %q",
				ErrSynthesis, cfg.Connection.Resolver, candidate)
		}

		if err := c.store.SetConnection(candidate, def); err != nil {
			return "", err
		}
		metrics.ConnectionsSynthesizedTotal.Inc()
	}

	if err := c.store.SetDefaultConnection(candidate); err != nil {
		return "", err
	}
	return candidate, nil
}
