// cmd/stratum/main.go
//
// Stratum – multi-tenant schema-migration orchestrator, CLI entry point.
//
// Command life-cycle
// ------------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load config: conf/stratum.yaml + STRATUM_ env overlay, with
//     `vault:` references resolved when VAULT_ADDR is set.
//
//  4. Open the control-plane connection (the store's default) and build
//     the tenant registry on it.
//
//  5. Optionally expose Prometheus /metrics while the run is in flight.
//
//  6. Build the orchestrator and dispatch the subcommand:
//
//     stratum migrate  -driver tenants -tenant 7
//     stratum migrate  -driver tenants -all
//     stratum rollback -driver tenants -tenant 7
//
// Large comment blocks are framed by blank “//” lines; inline comments
// use a single “//”.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/stratum/internal/config"
	"github.com/yanizio/stratum/internal/confstore"
	"github.com/yanizio/stratum/internal/database"
	"github.com/yanizio/stratum/internal/logger"
	"github.com/yanizio/stratum/internal/orchestrator"
	"github.com/yanizio/stratum/internal/resolver"
	"github.com/yanizio/stratum/internal/secrets"
	"github.com/yanizio/stratum/internal/tenant"
)

const serverEnvPath = "/usr/local/etc/stratum/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

// flagsValid checks the verb and flag combination before any connection
// is opened.  Rollback reverts one tenant's latest batch only; -all is
// rejected rather than silently narrowed.
func flagsValid(verb, driver, tenantKey string, all bool) bool {
	if driver == "" {
		return false
	}
	if verb == "rollback" {
		return tenantKey != "" && !all
	}
	return tenantKey != "" || all
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  stratum migrate  -driver <name> (-tenant <key> | -all) [-metrics-addr :9090] [-v]
  stratum rollback -driver <name> -tenant <key> [-v]`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	verb := os.Args[1]
	if verb != "migrate" && verb != "rollback" {
		usage()
	}

	fs := flag.NewFlagSet(verb, flag.ExitOnError)
	driverName := fs.String("driver", "", "tenancy driver from config")
	tenantKey := fs.String("tenant", "", "single tenant key")
	all := fs.Bool("all", false, "process every tenant")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	verbose := fs.Bool("v", false, "debug logging")
	_ = fs.Parse(os.Args[2:])

	if !flagsValid(verb, *driverName, *tenantKey, *all) {
		usage()
	}

	// Logs and config share the same root (STRATUM_ROOT or discovered),
	// so logs land under <root>/logs regardless of the invocation cwd.
	rootDir := config.RootDir()
	logOut, err := logger.New(rootDir, runningInTTY(), *verbose)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	ctx := context.Background()

	//
	// ── 1.  Config, with optional Vault secret resolution ──────────────
	//
	var secretsResolver secrets.Resolver
	if os.Getenv("VAULT_ADDR") != "" {
		cli, err := secrets.New()
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		secretsResolver = cli
	}

	cfg, tree, err := config.Load(ctx, secretsResolver)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}
	store := confstore.New(tree)

	//
	// ── 2.  Control-plane DB and tenant registry ───────────────────────
	//
	pool := database.NewPool(store, database.DefaultOptions)
	defer pool.Close()

	controlDB, err := pool.Get(ctx, cfg.Database.Default)
	if err != nil {
		logOut.Fatalf("connect control plane: %v", err)
	}

	// Log live-tenant count as an early sanity check.
	var live int
	_ = controlDB.Get(&live, `
	    SELECT COUNT(*) FROM tenant
	    WHERE suspended_at IS NULL AND deleted_at IS NULL`)
	logOut.Infow("control plane online", "live_tenants", live)

	repo := tenant.NewSQLRepository(controlDB)

	//
	// ── 3.  Metrics endpoint (optional, for long batch runs) ───────────
	//
	if *metricsAddr != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		go func() {
			if err := http.ListenAndServe(*metricsAddr, r); err != nil {
				logOut.Errorw("metrics listener failed", "err", err)
			}
		}()
		logOut.Infow("metrics listening", "addr", *metricsAddr)
	}

	//
	// ── 4.  Orchestrator wiring ─────────────────────────────────────────
	//
	data := tenant.NewDataCache()
	orch, err := orchestrator.New(orchestrator.Options{
		Config:  cfg,
		Store:   store,
		Handles: pool,
		Repo:    repo,
		Data:    data,
		Synths: map[string]resolver.Synth{
			// The built-in callable binds the driver's connection
			// template straight into a DSN on the driver's configured
			// engine.  Register custom ones here.
			"template": resolver.TemplateSynth(data),
		},
		Log: logOut,
	})
	if err != nil {
		logOut.Fatalf("build orchestrator: %v", err)
	}

	//
	// ── 5.  Dispatch ────────────────────────────────────────────────────
	//
	var n int
	switch {
	case verb == "migrate" && *all:
		n, err = orch.MigrateAll(ctx, *driverName)
	case verb == "migrate":
		n, err = orch.MigrateOne(ctx, *driverName, *tenantKey)
	default:
		n, err = orch.RollbackOne(ctx, *driverName, *tenantKey)
	}
	if err != nil {
		logOut.Fatalf("%s: %v", verb, err)
	}
	logOut.Infow("run complete", "verb", verb, "migrations", n)
}
