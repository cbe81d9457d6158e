// internal/tenant/entity.go
//
// Tenant entity contract.
//
// Context
// -------
// The orchestrator never constructs or persists tenants; it only reads
// them.  Any storage layer can feed the pipeline by satisfying Entity:
// a stable unique key plus an attribute tree that template binding can
// flatten into dotted paths.
//
// Notes
// -----
//   - Keys are strings so numeric and slug-style primary keys both fit.
//   - The attribute tree is read once per key and snapshotted by
//     DataCache; implementations need not make it cheap to rebuild.
package tenant

import "errors"

// ErrNotFound is returned when a tenant key is absent from the registry.
var ErrNotFound = errors.New("tenant not found")

// Entity is the capability set the orchestrator needs from a tenant
// record: identity and attributes.  Implementations live in the
// persistence layer; Record in this package is the sqlx-backed default.
type Entity interface {
	// Key returns the tenant's unique key, e.g. "7" or "acme".
	Key() string

	// AttributeTree returns the tenant's attributes as a nested map.
	// Nested maps flatten into dotted template paths, so a tree
	// {"address": {"city": "Oslo"}} is addressable as
	// {entity.address.city}.
	AttributeTree() map[string]any
}
