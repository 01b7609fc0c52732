// Package metrics exposes Prometheus counters for the gRPC services and
// serves them, together with a health probe, over HTTP.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "restaurant"

type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Watchers *prometheus.GaugeVec
	Changes  *prometheus.CounterVec
}

// New registers the server collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC calls handled, by method and status code.",
		}, []string{"method", "code"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "Duration of unary gRPC calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Watchers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_watchers",
			Help:      "Open Watch streams, by collection.",
		}, []string{"collection"}),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_sent_total",
			Help:      "Collection snapshots pushed to watchers.",
		}, []string{"collection"}),
	}
	m.registry.MustRegister(
		m.Requests, m.Latency, m.Watchers, m.Changes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	m.Latency.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	m.Requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}

func (m *Metrics) StreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	err := handler(srv, ss)
	m.Requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return err
}

// WatchStarted counts an open Watch stream; call the returned func when it
// ends.
func (m *Metrics) WatchStarted(collection string) func() {
	g := m.Watchers.WithLabelValues(collection)
	g.Inc()
	return g.Dec
}

func (m *Metrics) SnapshotSent(collection string) {
	m.Changes.WithLabelValues(collection).Inc()
}
