// internal/runner/cache.go
//
// Memoized runner construction, one runner per tracking table.
//
// Context
// -------
// Batched tenant processing resolves the same table repeatedly when a
// driver shares tables, and rebuilding runner state per tenant would
// re-read the applied set every time.  Cache keys runners by resolved
// table name: at most one runner exists per distinct table for the
// cache's lifetime.  Tenants that resolve to the same table share one
// runner.
//
// Population goes through singleflight with a double-check after the
// barrier, so even under concurrent callers only one construction per
// table can run.  Runners are never proactively closed; any underlying
// resource belongs to the connection layer.
//
// Notes
// -----
//   - The first caller's handle and source directory win for a given
//     table.  Tenants sharing a table share a connection by construction,
//     since an unshared table family pins one driver and one path.
package runner

import (
	"sync"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/stratum/internal/metrics"
)

// Cache builds and memoizes runners per table name.
type Cache struct {
	factory Factory
	sfg     singleflight.Group
	m       sync.Map // table → Runner
}

// NewCache wraps a Factory; pass runner.Default for the SQL runner.
func NewCache(factory Factory) *Cache {
	return &Cache{factory: factory}
}

// For returns the runner bound to table, constructing it on first use
// from db and the migration directory.
func (c *Cache) For(table string, db *sqlx.DB, dir string) (Runner, error) {
	if v, ok := c.m.Load(table); ok {
		return v.(Runner), nil
	}

	v, err, _ := c.sfg.Do(table, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(table); ok {
			return v, nil
		}

		r := c.factory(NewState(db, table), db, NewDirSource(dir))
		c.m.Store(table, r)
		metrics.MigratorsBuiltTotal.Inc()
		metrics.ActiveMigrators.Inc()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Runner), nil
}

// Len reports how many runners are cached.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}
