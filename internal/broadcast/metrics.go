package broadcast

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "hoststats_dashboard"

// Metrics holds the dashboard's own counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	peers     prometheus.Gauge
	received  prometheus.Counter
	delivered prometheus.Counter
	ignored   prometheus.Counter
	dropped   *prometheus.CounterVec
}

// NewMetrics registers the dashboard counters plus Go runtime and process
// collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		peers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "peers",
			Help:      "Currently connected websocket peers",
		}),
		received: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_received_total",
			Help:      "stats_update events received from peers",
		}),
		delivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_delivered_total",
			Help:      "Events written to peers",
		}),
		ignored: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_ignored_total",
			Help:      "Inbound events that were not stats_update or could not be decoded",
		}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "peers_dropped_total",
			Help:      "Peers disconnected by the slow-peer policy or a write error",
		}, []string{"reason"}),
	}
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
