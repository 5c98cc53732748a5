package facade

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/membroker/internal/broker"
)

// metricSet holds the broker-level Prometheus gauges and counters exposed
// on /metrics. Gauges are refreshed after every mutating request rather
// than scraped live from the store, since the store holds no Prometheus
// dependency of its own — the core stays free of this ambient concern.
type metricSet struct {
	registry            *prometheus.Registry
	globalEpoch         prometheus.Gauge
	proxiesTotal        prometheus.Gauge
	chunksTotal         prometheus.Gauge
	migrationsCommitted prometheus.Gauge
	failureReports      prometheus.Gauge
}

func newMetricSet() *metricSet {
	m := &metricSet{
		registry: prometheus.NewRegistry(),
		globalEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "membroker_global_epoch",
			Help: "Current MetaStore global epoch.",
		}),
		proxiesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "membroker_proxies_total",
			Help: "Number of known proxies.",
		}),
		chunksTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "membroker_chunks_total",
			Help: "Number of chunks in the current cluster, 0 if none exists.",
		}),
		migrationsCommitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "membroker_migrations_committed_total",
			Help: "Total migrations committed since process start.",
		}),
		failureReports: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "membroker_failure_reports_total",
			Help: "Total failure reports recorded since process start.",
		}),
	}
	m.registry.MustRegister(m.globalEpoch, m.proxiesTotal, m.chunksTotal, m.migrationsCommitted, m.failureReports)
	return m
}

// refresh pulls a fresh snapshot and stats counters from the store and sets
// every gauge to the current value. The store's own Stats already tracks
// monotonic totals, so this package only ever mirrors them rather than
// re-deriving counts from request handling.
func (m *metricSet) refresh(store *broker.MetaStore) {
	snap := store.ExportSnapshot()
	m.globalEpoch.Set(float64(snap.GlobalEpoch))
	m.proxiesTotal.Set(float64(len(snap.Proxies)))
	if snap.Cluster != nil {
		m.chunksTotal.Set(float64(len(snap.Cluster.Chunks)))
	} else {
		m.chunksTotal.Set(0)
	}

	stats := store.Stats()
	m.migrationsCommitted.Set(float64(stats.MigrationsCommitted))
	m.failureReports.Set(float64(stats.FailuresReported))
}

func (m *metricSet) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
