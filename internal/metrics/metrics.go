// Package metrics holds Prometheus instruments used across the
// orchestrator.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose
// them on /metrics when the listener is enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveMigrators = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_migrators",
			Help: "Number of migration runners currently cached in memory.",
		})

	MigratorsBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "migrators_built_total",
			Help: "Cumulative number of migration runners constructed.",
		})

	ConnectionsSynthesizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connections_synthesized_total",
			Help: "Cumulative number of connection definitions synthesized into the config store.",
		})

	TenantsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenants_processed_total",
			Help: "Cumulative number of tenants whose migration context was activated.",
		})

	TenantErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_errors_total",
			Help: "Cumulative number of tenants that failed during processing.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveMigrators,
		MigratorsBuiltTotal,
		ConnectionsSynthesizedTotal,
		TenantsProcessedTotal,
		TenantErrorsTotal,
	)
}
