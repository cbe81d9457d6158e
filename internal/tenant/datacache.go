// internal/tenant/datacache.go
//
// Per-tenant flattened attribute snapshots.
//
// Context
// -------
// Template binding consults a tenant's attributes several times per
// tenant (connection name, then table name).  DataCache flattens the
// entity's attribute tree once per key and reuses the snapshot for the
// lifetime of the cache, so one orchestration pass sees a consistent
// view of each tenant even if the underlying row changes mid-run.
//
// The cache is scoped to a single orchestration run and is never
// invalidated or evicted.  Staleness across runs cannot occur because
// the owning orchestrator is rebuilt per command invocation.
//
// Notes
// -----
// • Entries map "id" → key and "entity.<dotted.path>" → leaf value.
// • Guarded by a mutex; population is check-then-write.
package tenant

import "sync"

// DataCache memoizes flattened attribute maps keyed by tenant key.
type DataCache struct {
	mu sync.Mutex
	m  map[string]map[string]any
}

// NewDataCache returns an empty cache.
func NewDataCache() *DataCache {
	return &DataCache{m: make(map[string]map[string]any)}
}

// AttributesFor returns the flattened attribute snapshot for e, building
// and storing it on first call for e.Key().  Callers must treat the
// returned map as read-only; it is shared across calls.
func (c *DataCache) AttributesFor(e Entity) map[string]any {
	key := e.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if attrs, ok := c.m[key]; ok {
		return attrs
	}

	attrs := make(map[string]any)
	Flatten("entity", e.AttributeTree(), attrs)
	attrs["id"] = key

	c.m[key] = attrs
	return attrs
}

// Len reports how many tenants have been snapshotted.
func (c *DataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
