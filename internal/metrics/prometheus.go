package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sshconsole"

// Registry exposes the collector's counters as Prometheus metrics.  The
// values are read from the atomics at scrape time.
func (c *Collector) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of console sessions currently open.",
		}, func() float64 { return float64(c.ActiveSessions()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Console sessions opened since start.",
		}, func() float64 { return float64(c.TotalSessions()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections refused by the session cap or a failed handshake.",
		}, func() float64 { return float64(c.RejectedConnections()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received_bytes_total",
			Help:      "Bytes read from session channels.",
		}, func() float64 { return float64(c.TotalBytesIn()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sent_bytes_total",
			Help:      "Bytes written to session channels.",
		}, func() float64 { return float64(c.TotalBytesOut()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Command lines dispatched.",
		}, func() float64 { return float64(c.Commands()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_failures_total",
			Help:      "Command lines rejected for syntax, unknown name or bad arguments.",
		}, func() float64 { return float64(c.CommandFailures()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_errors_total",
			Help:      "Sessions that ended with an error.",
		}, func() float64 { return float64(c.ErrorCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the server started.",
		}, func() float64 { return c.Uptime().Seconds() }),
	)
	return reg
}

// Handler returns an http.Handler serving the collector in the
// Prometheus text exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{})
}
