// internal/confstore/store.go
//
// Dotted-path configuration store.
//
// Context
// -------
// The connection resolver treats configuration as a generic key-value
// tree: it reads connection definitions at `database.connections.<name>`,
// writes synthesized ones back to the same path, and flips the
// `database.default` slot to the active tenant's connection.  A Koanf
// tree is exactly that, dotted-path get/set over a merged config, so
// Store is a thin wrapper around the same *koanf.Koanf instance the
// loader built rather than a second copy of the data.
//
// Notes
// -----
//   - database.default is a single mutable slot.  Sequential tenant
//     processing is a precondition; see internal/resolver.
//   - Koanf itself locks around reads and writes, so Store adds no lock.
package confstore

import (
	"fmt"

	koanf "github.com/knadh/koanf/v2"
)

const (
	defaultSlot    = "database.default"
	connectionBase = "database.connections."
)

// ConnectionDef is the shape of one entry under database.connections.
// Driver selects the SQL engine ("mysql", "postgres", or "sqlite3");
// DSN is passed verbatim to the driver.
type ConnectionDef struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// Valid reports whether the definition can open a connection.
func (d ConnectionDef) Valid() bool { return d.Driver != "" && d.DSN != "" }

// Store exposes dotted-path access over a Koanf tree.
type Store struct {
	k *koanf.Koanf
}

// New wraps an existing Koanf tree.  The loader and the store share the
// instance, so synthesized connections are visible to later readers.
func New(k *koanf.Koanf) *Store { return &Store{k: k} }

// Has reports whether any value exists at path.
func (s *Store) Has(path string) bool { return s.k.Exists(path) }

// Get returns the raw value at path, or nil.
func (s *Store) Get(path string) any { return s.k.Get(path) }

// Set writes a value at path, creating intermediate branches.
func (s *Store) Set(path string, v any) error { return s.k.Set(path, v) }

// HasConnection reports whether a definition exists for name.
func (s *Store) HasConnection(name string) bool {
	return s.k.Exists(connectionBase + name)
}

// Connection unmarshals the definition stored under name.  The second
// return is false when no definition exists.
func (s *Store) Connection(name string) (ConnectionDef, bool) {
	if !s.HasConnection(name) {
		return ConnectionDef{}, false
	}
	var def ConnectionDef
	if err := s.k.Unmarshal(connectionBase+name, &def); err != nil {
		return ConnectionDef{}, false
	}
	return def, true
}

// SetConnection stores a definition under name.
func (s *Store) SetConnection(name string, def ConnectionDef) error {
	path := connectionBase + name
	if err := s.k.Set(path+".driver", def.Driver); err != nil {
		return fmt.Errorf("confstore: set %s: %w", path, err)
	}
	if err := s.k.Set(path+".dsn", def.DSN); err != nil {
		return fmt.Errorf("confstore: set %s: %w", path, err)
	}
	return nil
}

// DefaultConnection returns the current default-connection name.
func (s *Store) DefaultConnection() string { return s.k.String(defaultSlot) }

// SetDefaultConnection points the default slot at name.
func (s *Store) SetDefaultConnection(name string) error {
	return s.k.Set(defaultSlot, name)
}
