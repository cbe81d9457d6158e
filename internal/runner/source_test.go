// internal/runner/source_test.go
//
// Unit-tests for the directory migration source.

package runner

import (
	"testing"
	"testing/fstest"
)

func TestMigrations_PairsAndOrders(t *testing.T) {
	src := NewFSSource(fstest.MapFS{
		"002_add_index.up.sql":  {Data: []byte("CREATE INDEX i ON t (c)")},
		"001_create_t.up.sql":   {Data: []byte("CREATE TABLE t (c INT)")},
		"001_create_t.down.sql": {Data: []byte("DROP TABLE t")},
		"notes.txt":             {Data: []byte("ignored")},
		"003_seed.up.sql":       {Data: []byte("INSERT INTO t VALUES (1)")},
	})

	got, err := src.Migrations()
	if err != nil {
		t.Fatalf("Migrations error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	if got[0].Name != "001_create_t" || got[1].Name != "002_add_index" || got[2].Name != "003_seed" {
		t.Fatalf("order: %q, %q, %q", got[0].Name, got[1].Name, got[2].Name)
	}
	if got[0].Down != "DROP TABLE t" {
		t.Fatalf("down body = %q", got[0].Down)
	}
	if got[1].Down != "" {
		t.Fatalf("unpaired migration has down %q", got[1].Down)
	}
}

func TestMigrations_DownWithoutUpFails(t *testing.T) {
	src := NewFSSource(fstest.MapFS{
		"001_create_t.down.sql": {Data: []byte("DROP TABLE t")},
	})

	if _, err := src.Migrations(); err == nil {
		t.Fatal("expected error for orphan down file")
	}
}
