package observability

import (
	"errors"
	"net/http"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gRPC server metrics and the vault's domain counters.
type Metrics struct {
	serverMetrics *grpcprom.ServerMetrics
	handler       http.Handler

	Uploads        *prometheus.CounterVec
	UploadBytes    prometheus.Counter
	Deletes        *prometheus.CounterVec
	OrphanedFiles  prometheus.Counter
	LedgerWrites   *prometheus.CounterVec
	LedgerDropped  prometheus.Counter
	DashboardBytes prometheus.Histogram
}

// InitMetrics registers every collector on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated.
func InitMetrics(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		// Create server metrics with default buckets
		serverMetrics: grpcprom.NewServerMetrics(
			grpcprom.WithServerHandlingTimeHistogram(
				grpcprom.WithHistogramBuckets([]float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}),
			),
		),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biovault",
			Name:      "uploads_total",
			Help:      "Uploads by result.",
		}, []string{"result"}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "biovault",
			Name:      "upload_bytes_total",
			Help:      "Bytes written by successful uploads.",
		}),
		Deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biovault",
			Name:      "deletes_total",
			Help:      "Delete-by-name operations by outcome.",
		}, []string{"outcome"}),
		OrphanedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "biovault",
			Name:      "orphaned_files_total",
			Help:      "Physical files left on disk after their catalog rows were deleted.",
		}),
		LedgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biovault",
			Name:      "ledger_writes_total",
			Help:      "Activity ledger writes by result.",
		}, []string{"result"}),
		LedgerDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "biovault",
			Name:      "ledger_dropped_total",
			Help:      "Activity entries dropped because the ledger queue was full.",
		}),
		DashboardBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "biovault",
			Name:      "dashboard_total_bytes",
			Help:      "Per-user live storage usage observed when rendering dashboards.",
			Buckets:   prometheus.ExponentialBuckets(1024, 16, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.serverMetrics,
		m.Uploads, m.UploadBytes, m.Deletes, m.OrphanedFiles,
		m.LedgerWrites, m.LedgerDropped, m.DashboardBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			// If already registered, that's okay (useful for testing)
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
		}
	}

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m, nil
}

// NewNopMetrics returns metrics registered on a private registry.
func NewNopMetrics() *Metrics {
	m, err := InitMetrics(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return m
}

// GetServerMetrics returns the gRPC server metrics
func (m *Metrics) GetServerMetrics() *grpcprom.ServerMetrics {
	return m.serverMetrics
}

// GetHandler returns the HTTP handler for /metrics endpoint
func (m *Metrics) GetHandler() http.Handler {
	return m.handler
}
