// internal/config/loader_test.go
//
// Unit-tests for the config loader: YAML layer, env overlay, vault
// reference resolution, and validation failures.

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
database:
  default: global
  connections:
    global:
      driver: mysql
      dsn: app@tcp(db:3306)/control
iteration:
  chunk_size: 50
drivers:
  tenants:
    prefix: acme
    path: migrations/tenants
    connection:
      name: warehouse_{id}
      template: app@tcp(db-{id}:3306)/tenant_{id}
      resolver: template
`

// fakeVault satisfies secrets.Resolver with a fixed mapping.
type fakeVault map[string]string

func (f fakeVault) Resolve(_ context.Context, ref string) (string, error) {
	return f[ref], nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "stratum.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("STRATUM_ROOT", root)
	return root
}

func TestRootDir_SharedByConfigAndCallers(t *testing.T) {
	root := writeConfig(t, sampleYAML)

	// STRATUM_ROOT wins outright.
	if got := RootDir(); got != root {
		t.Fatalf("RootDir = %q, want %q", got, root)
	}

	// Without the env var the conf-file climb finds the same root from a
	// nested cwd, so log and config paths agree wherever the command runs.
	t.Setenv("STRATUM_ROOT", "")
	os.Unsetenv("STRATUM_ROOT")
	sub := filepath.Join(root, "cmd", "stratum")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(sub); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldwd) })

	got, err := filepath.EvalSymlinks(RootDir())
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	want, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Fatalf("RootDir from subdir = %q, want %q", got, want)
	}
}

func TestLoad_TypedAndRawViews(t *testing.T) {
	root := writeConfig(t, sampleYAML)

	cfg, tree, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Database.Default != "global" {
		t.Fatalf("default = %q", cfg.Database.Default)
	}
	if cfg.Iteration.ChunkSize != 50 {
		t.Fatalf("chunk_size = %d", cfg.Iteration.ChunkSize)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root = %q, want %q", cfg.Paths.Root, root)
	}

	drv, ok := cfg.Drivers["tenants"]
	if !ok {
		t.Fatal("driver block missing")
	}
	if !drv.IsShared() {
		t.Fatal("shared must default to true")
	}
	if drv.TablePrefix("tenants") != "acme" {
		t.Fatalf("prefix = %q", drv.TablePrefix("tenants"))
	}
	if drv.Connection == nil || drv.Connection.Resolver != "template" {
		t.Fatalf("connection block = %#v", drv.Connection)
	}

	// The raw tree doubles as the runtime config store.
	if tree.String("database.connections.global.dsn") != "app@tcp(db:3306)/control" {
		t.Fatal("raw tree lost the connection definition")
	}
}

func TestLoad_EnvOverlayWins(t *testing.T) {
	writeConfig(t, sampleYAML)
	t.Setenv("STRATUM_DATABASE__DEFAULT", "replica")

	cfg, _, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Database.Default != "replica" {
		t.Fatalf("env overlay lost: %q", cfg.Database.Default)
	}
}

func TestLoad_VaultReferenceResolved(t *testing.T) {
	writeConfig(t, strings.Replace(sampleYAML,
		"dsn: app@tcp(db:3306)/control",
		"dsn: vault:secret/stratum#control_dsn", 1))

	_, tree, err := Load(context.Background(), fakeVault{
		"vault:secret/stratum#control_dsn": "app:pw@tcp(db:3306)/control",
	})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := tree.String("database.connections.global.dsn"); got != "app:pw@tcp(db:3306)/control" {
		t.Fatalf("dsn = %q", got)
	}
}

func TestLoad_VaultReferenceWithoutResolverFails(t *testing.T) {
	writeConfig(t, strings.Replace(sampleYAML,
		"dsn: app@tcp(db:3306)/control",
		"dsn: vault:secret/stratum#control_dsn", 1))

	if _, _, err := Load(context.Background(), nil); err == nil {
		t.Fatal("expected error for unresolvable vault reference")
	}
}

func TestLoad_MissingDriverPathFailsValidation(t *testing.T) {
	writeConfig(t, `
database:
  default: global
drivers:
  tenants:
    prefix: acme
`)
	if _, _, err := Load(context.Background(), nil); err == nil {
		t.Fatal("expected validation failure for driver without path")
	}
}
