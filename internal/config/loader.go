// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one `Config` struct plus the raw Koanf tree from three
layers (highest precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/stratum.yaml`.
  3. Environment variables prefixed `STRATUM_`, where `__` maps to "."
     (e.g., `STRATUM_DATABASE__DEFAULT → database.default`).

After merging, any string value of the form `vault:<mount/path#key>` is
resolved through the supplied secrets resolver and written back into the
tree, then the tree is unmarshalled into strongly-typed structs and
validated.  The raw tree is returned alongside the typed struct because
the connection resolver keeps using it as a live dotted-path store (see
internal/confstore): synthesized connection definitions are written into
the same tree during a run.

Notes
-----
  • `RootDir()` climbs the cwd tree until it finds `conf/stratum.yaml`,
    so `go run ./cmd/stratum` works from any sub-directory.  It is
    exported because the logger roots its log directory at the same
    path, before Load runs.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot
    issues surface on the bootstrap console.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/stratum/internal/secrets"
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves STRATUM_ROOT or climbs directories until
// conf/stratum.yaml is found.  Falls back to the executable heuristic
// for production layout.  Everything rooted at the install directory
// (config, logs) derives its path from this one function.
func RootDir() string {
	if r := os.Getenv("STRATUM_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "stratum.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, and env overrides, resolves vault references,
// validates, and returns the typed Config plus the merged tree.  The
// resolver may be nil when no Vault is configured; a vault reference in
// the tree is then a hard error rather than a value used verbatim.
func Load(ctx context.Context, resolver secrets.Resolver) (*Config, *koanf.Koanf, error) {
	root := RootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "stratum.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, nil, err
	}

	// Env overrides: STRATUM_DATABASE__DEFAULT → database.default
	if err := k.Load(env.Provider("STRATUM_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "STRATUM_")
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, nil, err
	}

	if err := resolveSecrets(ctx, k, resolver); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, nil, err
	}

	zap.S().Infow("config loaded",
		"default_connection", cfg.Database.Default,
		"drivers", len(cfg.Drivers),
		"root", cfg.Paths.Root,
	)
	return &cfg, k, nil
}

/*──────────────────────────── vault overlay ───────────────────────────────*/

// resolveSecrets replaces every `vault:`-prefixed string leaf in the
// tree with the secret it names.  DSNs with embedded credentials are
// the usual case.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, resolver secrets.Resolver) error {
	for path, raw := range k.All() {
		val, ok := raw.(string)
		if !ok || !secrets.IsRef(val) {
			continue
		}
		if resolver == nil {
			return fmt.Errorf("config: %s references a secret but no vault is configured", path)
		}
		plain, err := resolver.Resolve(ctx, val)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", path, err)
		}
		if err := k.Set(path, plain); err != nil {
			return fmt.Errorf("config: overwrite %s: %w", path, err)
		}
	}
	return nil
}
