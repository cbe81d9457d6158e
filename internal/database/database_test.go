// internal/database/database_test.go
//
// Unit-tests for pool lookup failure modes.  Successful opens need a
// live engine and belong to integration environments.

package database

import (
	"context"
	"strings"
	"testing"

	koanf "github.com/knadh/koanf/v2"

	"github.com/yanizio/stratum/internal/confstore"
)

func TestPoolGet_UndefinedConnection(t *testing.T) {
	pool := NewPool(confstore.New(koanf.New(".")), DefaultOptions)

	_, err := pool.Get(context.Background(), "ghost")
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("want undefined-connection error naming it, got %v", err)
	}
}

func TestPoolGet_IncompleteDefinition(t *testing.T) {
	k := koanf.New(".")
	if err := k.Set("database.connections.half.driver", "mysql"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	pool := NewPool(confstore.New(k), DefaultOptions)

	_, err := pool.Get(context.Background(), "half")
	if err == nil || !strings.Contains(err.Error(), "half") {
		t.Fatalf("want incomplete-definition error, got %v", err)
	}
}
