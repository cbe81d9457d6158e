// internal/tenant/datacache_test.go
//
// Unit-tests for attribute flattening and the per-tenant snapshot cache.

package tenant

import (
	"reflect"
	"testing"
)

// fakeEntity satisfies Entity with injectable fields.
type fakeEntity struct {
	key  string
	tree map[string]any
}

func (f *fakeEntity) Key() string                   { return f.key }
func (f *fakeEntity) AttributeTree() map[string]any { return f.tree }

func TestFlatten_NestedTree(t *testing.T) {
	out := make(map[string]any)
	Flatten("entity", map[string]any{
		"slug": "acme",
		"address": map[string]any{
			"city": "Oslo",
			"geo":  map[string]any{"lat": 59.91},
		},
	}, out)

	want := map[string]any{
		"entity.slug":            "acme",
		"entity.address.city":    "Oslo",
		"entity.address.geo.lat": 59.91,
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("flatten mismatch:\n got %#v\nwant %#v", out, want)
	}
}

func TestDataCache_AddsIDAndPrefix(t *testing.T) {
	c := NewDataCache()
	attrs := c.AttributesFor(&fakeEntity{key: "7", tree: map[string]any{"slug": "acme"}})

	if attrs["id"] != "7" {
		t.Fatalf("id = %v, want 7", attrs["id"])
	}
	if attrs["entity.slug"] != "acme" {
		t.Fatalf("entity.slug = %v", attrs["entity.slug"])
	}
}

func TestDataCache_SnapshotIsStable(t *testing.T) {
	// The first flattening wins for a key; later entity mutation is
	// invisible within one orchestration run.
	ent := &fakeEntity{key: "7", tree: map[string]any{"slug": "before"}}
	c := NewDataCache()

	_ = c.AttributesFor(ent)
	ent.tree = map[string]any{"slug": "after"}
	second := c.AttributesFor(ent)

	if second["entity.slug"] != "before" {
		t.Fatalf("snapshot not stable: %v", second["entity.slug"])
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}
