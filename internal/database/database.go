// Package database centralises sqlx connection helpers.  Tenants may
// live on different engines, so the open helpers take a driver name:
// go-sql-driver/mysql, lib/pq, and mattn/go-sqlite3 are all linked in.
//
// Public entry points:
//
//	Open(ctx, driver, dsn)             – conservative pool sizes.
//	OpenWithOptions(ctx, driver, dsn, opts) – fine-grained control.
//	NewPool(store, opts)               – named, memoized handles backed
//	                                     by the config store.
//
// The open helpers Ping the database before returning so callers fail
// fast.  Callers should Close() what they open; Pool.Close() covers
// every handle the pool built.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/yanizio/stratum/internal/confstore"
)

// Options tunes one connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions keeps per-tenant resource usage small: migration runs
// touch one tenant at a time, so a handful of connections suffices.
var DefaultOptions = Options{
	MaxOpenConns:    5,
	MaxIdleConns:    2,
	ConnMaxLifetime: 30 * time.Minute,
}

// Open returns a *sqlx.DB with DefaultOptions applied.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, driver, dsn, DefaultOptions)
}

// OpenWithOptions lets callers tune the pool.
func OpenWithOptions(ctx context.Context, driver, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Handles hands out named database handles.  The orchestrator depends
// on this interface so tests can substitute sqlmock-backed fakes.
type Handles interface {
	Get(ctx context.Context, name string) (*sqlx.DB, error)
}

// Pool memoizes one *sqlx.DB per connection name, reading definitions
// from the config store.  Synthesized definitions written by the
// resolver during a run are picked up because the store is shared.
type Pool struct {
	store *confstore.Store
	opts  Options

	mu    sync.Mutex
	conns map[string]*sqlx.DB
}

// NewPool builds an empty pool over store.
func NewPool(store *confstore.Store, opts Options) *Pool {
	return &Pool{store: store, opts: opts, conns: make(map[string]*sqlx.DB)}
}

// Get returns the handle for name, opening it from the stored
// definition on first use.
func (p *Pool) Get(ctx context.Context, name string) (*sqlx.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.conns[name]; ok {
		return db, nil
	}

	def, ok := p.store.Connection(name)
	if !ok {
		return nil, fmt.Errorf("database: no definition for connection %q", name)
	}
	if !def.Valid() {
		return nil, fmt.Errorf("database: definition for connection %q lacks driver or dsn", name)
	}

	db, err := OpenWithOptions(ctx, def.Driver, def.DSN, p.opts)
	if err != nil {
		return nil, fmt.Errorf("database: open %q: %w", name, err)
	}

	p.conns[name] = db
	return db, nil
}

// Close closes every handle the pool opened.  The last error wins;
// handles are closed regardless.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var last error
	for name, db := range p.conns {
		if err := db.Close(); err != nil {
			last = err
		}
		delete(p.conns, name)
	}
	return last
}
