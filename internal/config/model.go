// internal/config/model.go
//
// Typed configuration model for Stratum.
//
// Context
// -------
// These structs define the shape of the tree that internal/config/loader.go
// builds from three overlay layers:
//
//   - optional `.env`                           – dotenv values,
//   - `conf/stratum.yaml`                       – primary static file,
//   - `STRATUM_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through internal/secrets before unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the command fails fast
// if required fields are missing.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   - The `Paths` block is filled at runtime; YAML must not set it.
//   - Oxford commas, two spaces after periods.
package config

// Database names the boot connection.  The definitions themselves live
// under database.connections.<name> in the raw tree and are read through
// internal/confstore, since the resolver also writes synthesized entries
// back there at runtime.
type Database struct {
	Default string `koanf:"default" validate:"required"`
}

// Iteration tunes bulk tenant traversal.
type Iteration struct {
	ChunkSize int `koanf:"chunk_size"` // 0 means tenant.DefaultChunkSize
}

// ConnectionTemplate describes how a driver derives per-tenant
// connections.  Name is itself a template ("warehouse_{id}"); Template
// is handed to the resolver callable registered under Resolver, which
// synthesizes the definition for names not yet present in the store.
type ConnectionTemplate struct {
	Name     string `koanf:"name"     validate:"required"`
	Template string `koanf:"template"`
	Resolver string `koanf:"resolver" validate:"required"`
	Engine   string `koanf:"engine"` // SQL engine for synthesized defs, default mysql
}

// Driver is one tenancy driver: which connection its tenants use, how
// their migration-tracking table is named, and where the migration
// files live.
type Driver struct {
	Database   string              `koanf:"database"` // explicit connection-name override
	Connection *ConnectionTemplate `koanf:"connection"`
	Migration  string              `koanf:"migration"` // explicit table-name template
	Shared     *bool               `koanf:"shared"`    // nil means true
	Prefix     string              `koanf:"prefix"`    // defaults to the driver name
	Model      string              `koanf:"model"`     // expected entity model identifier
	Path       string              `koanf:"path" validate:"required"`
}

// IsShared reports the shared-table-family flag, defaulting to true.
func (d Driver) IsShared() bool { return d.Shared == nil || *d.Shared }

// TablePrefix returns the configured prefix, falling back to the
// driver's own name.
func (d Driver) TablePrefix(driverName string) string {
	if d.Prefix != "" {
		return d.Prefix
	}
	return driverName
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // STRATUM_ROOT or discovered parent
}

// Config is the immutable aggregate returned by Load.
type Config struct {
	Database  Database          `koanf:"database"`
	Iteration Iteration         `koanf:"iteration"`
	Drivers   map[string]Driver `koanf:"drivers" validate:"required,min=1,dive"`
	Paths     Paths             `koanf:"-"`
}
