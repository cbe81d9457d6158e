// internal/resolver/table.go
//
// Migration-tracking table naming policy.
//
// Context
// -------
// Each tenant's applied-migration history is recorded in a tracking
// table.  An operator chooses between three layouts per driver, checked
// in order:
//
//  1. `migration` template override  – fully custom naming.
//  2. shared family (default)        – "{prefix}_{id}_migrations",
//     one table per tenant under a common prefix.
//  3. shared = false                 – the fixed literal
//     "tenant_migrations", one table for everyone.
//
// Notes
// -----
//   - {prefix} binds to the driver's configured prefix, defaulting to the
//     driver name itself; everything else binds against the tenant's
//     flattened attributes.
package resolver

import (
	"github.com/yanizio/stratum/internal/config"
	"github.com/yanizio/stratum/internal/template"
	"github.com/yanizio/stratum/internal/tenant"
)

// UnsharedTable is the fixed table used when a driver opts out of the
// per-tenant table family.
const UnsharedTable = "tenant_migrations"

// sharedTemplate names one tracking table per tenant.
const sharedTemplate = "{prefix}_{id}_migrations"

// Tables resolves tracking-table names from driver config and tenant
// attributes.
type Tables struct {
	data *tenant.DataCache
}

// NewTables builds a resolver over the shared attribute cache.
func NewTables(data *tenant.DataCache) *Tables {
	return &Tables{data: data}
}

// Resolve returns the tracking-table name for e under the named driver.
// First match wins: migration override, then the shared family, then
// the fixed literal.
func (t *Tables) Resolve(e tenant.Entity, driverName string, cfg config.Driver) (string, error) {
	if cfg.Migration != "" {
		return template.Bind(cfg.Migration, t.withPrefix(e, driverName, cfg))
	}
	if cfg.IsShared() {
		return template.Bind(sharedTemplate, t.withPrefix(e, driverName, cfg))
	}
	return UnsharedTable, nil
}

// withPrefix overlays the driver prefix on the tenant's attribute
// snapshot.  The cached map is shared, so it is copied rather than
// mutated.
func (t *Tables) withPrefix(e tenant.Entity, driverName string, cfg config.Driver) map[string]any {
	attrs := t.data.AttributesFor(e)
	out := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out["prefix"] = cfg.TablePrefix(driverName)
	return out
}
