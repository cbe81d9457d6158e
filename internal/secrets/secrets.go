// internal/secrets/secrets.go
//
// Vault-backed secret references.
//
// Context
// -------
// Connection DSNs carry credentials, and operators keep those out of
// flat files by writing `vault:<mount/path>#<key>` in stratum.yaml.
// The config loader walks the merged tree and swaps each reference for
// the secret it names before unmarshalling, so nothing downstream ever
// sees a Vault URI.
//
// The client wraps the HashiCorp SDK's KV-v2 helpers with a per-key
// cache.  A migration run is one short-lived command invocation, so
// there is no token-renewal loop: the boot token must simply outlive
// the run.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token (falls back to ~/.vault-token).
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
)

const refPrefix = "vault:"

// Resolver turns a `vault:` reference into its plain value.  The config
// loader depends on this interface rather than the concrete client so
// tests can substitute a map-backed fake.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// IsRef reports whether s is a vault reference.
func IsRef(s string) bool { return strings.HasPrefix(s, refPrefix) }

// Client is safe for concurrent use.  Zero value is invalid; build one
// with New during boot.
type Client struct {
	api *vault.Client

	mu    sync.Mutex
	cache map[string]string // canonical path#key → value
}

// New constructs a client from the standard VAULT_* environment.
func New() (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	return &Client{api: api, cache: make(map[string]string)}, nil
}

// Resolve parses `vault:mount/path#key` and returns the named field of
// the KV-v2 secret.  Results are cached for the client's lifetime.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	if !IsRef(ref) {
		return ref, nil
	}

	spec := strings.TrimPrefix(ref, refPrefix)
	path, key, ok := strings.Cut(spec, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("secrets: malformed reference %q, want vault:mount/path#key", ref)
	}

	canonical := path + "#" + key
	c.mu.Lock()
	if v, hit := c.cache[canonical]; hit {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	mount, rel, ok := strings.Cut(path, "/")
	if !ok {
		return "", fmt.Errorf("secrets: reference %q names no path under mount %q", ref, mount)
	}

	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("secrets: get %s: %w", path, err)
	}

	raw, found := sec.Data[key]
	if !found {
		return "", fmt.Errorf("secrets: key %q not found in secret %q", key, path)
	}
	val, isStr := raw.(string)
	if !isStr {
		return "", errors.New("secrets: value at " + canonical + " is not a string")
	}

	c.mu.Lock()
	c.cache[canonical] = val
	c.mu.Unlock()
	return val, nil
}
