// internal/tenant/repository.go
//
// sqlx-backed tenant registry.
//
// Context
// -------
// The default Repository implementation reads the `tenant` table in the
// control-plane database.  Operational state is captured by two
// nullable timestamps, and either being non-NULL hides the row from
// both lookup and traversal:
//
//   - SuspendedAt – tenant is temporarily disabled (e.g., billing).
//   - DeletedAt   – tenant is permanently removed.
//
// The `meta` column holds a JSON object of free-form attributes
// (region, plan, nested address blocks, …) that templates address as
// {entity.<path>}.  Fixed columns are exposed under their own names.
//
// Notes
// -----
//   - Queries are written with "?" bindvars and passed through
//     sqlx.Rebind, so the registry works on MySQL, Postgres, and SQLite
//     alike.
package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record mirrors one row in the `tenant` table and satisfies Entity.
type Record struct {
	ID          uint64     `db:"id"`
	Slug        string     `db:"slug"`
	Name        string     `db:"name"`
	Meta        []byte     `db:"meta"` // JSON object, may be NULL
	SuspendedAt *time.Time `db:"suspended_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Key returns the primary key rendered as a string.
func (r *Record) Key() string { return strconv.FormatUint(r.ID, 10) }

// AttributeTree exposes the fixed columns plus the decoded meta object.
// Meta keys sit at the top of the tree, so a JSON body
// {"address":{"city":"Oslo"}} binds as {entity.address.city}.  A meta
// key never shadows a fixed column.
func (r *Record) AttributeTree() map[string]any {
	tree := make(map[string]any, 8)
	if len(r.Meta) > 0 {
		// Malformed meta is ignored rather than fatal; fixed columns
		// still bind.
		var m map[string]any
		if err := json.Unmarshal(r.Meta, &m); err == nil {
			for k, v := range m {
				tree[k] = v
			}
		}
	}
	tree["slug"] = r.Slug
	tree["name"] = r.Name
	return tree
}

const selectColumns = `id, slug, name, meta, suspended_at, deleted_at,
	       created_at, updated_at`

// SQLRepository reads tenants from a control-plane database.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps an open control-plane handle.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// ModelName identifies the entity model this repository serves.  The
// orchestrator checks it against each driver's configured `model` at
// construction time.
func (r *SQLRepository) ModelName() string { return "tenant.Record" }

// ByKey fetches a single live tenant row.  Absent, suspended, and
// deleted tenants all surface as ErrNotFound.
func (r *SQLRepository) ByKey(ctx context.Context, key string) (Entity, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q is not numeric", ErrNotFound, key)
	}

	q := r.db.Rebind(`
	    SELECT ` + selectColumns + `
	    FROM   tenant
	    WHERE  id = ?
	      AND  suspended_at IS NULL
	      AND  deleted_at   IS NULL
	    LIMIT  1`)

	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Chunk returns up to size live tenants ordered by primary key.
func (r *SQLRepository) Chunk(ctx context.Context, offset, size int) ([]Entity, error) {
	q := r.db.Rebind(`
	    SELECT ` + selectColumns + `
	    FROM   tenant
	    WHERE  suspended_at IS NULL
	      AND  deleted_at   IS NULL
	    ORDER  BY id
	    LIMIT  ? OFFSET ?`)

	var rows []Record
	if err := r.db.SelectContext(ctx, &rows, q, size, offset); err != nil {
		return nil, err
	}

	out := make([]Entity, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}
