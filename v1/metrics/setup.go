package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing application metrics.
//
// Metrics implements observability.Observer, so it can be handed directly to
// the kafka, rabbit, schema_registry and pipeline clients.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	messageSize       *prometheus.HistogramVec
}

// NewMetrics initializes and returns a new instance of the Metrics struct.
// It sets up a dedicated Prometheus registry, optionally registers default
// system collectors, wraps all metrics with a constant `service` label, and
// creates an HTTP server exposing the /metrics endpoint.
//
// The messaging metrics registered here are:
//   - <ns>_operations_total{component,operation,status}
//   - <ns>_operation_duration_seconds{component,operation}
//   - <ns>_message_size_bytes{component,operation}
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    Namespace:   "topicstream",
//	    ServiceName: "orders-service",
//	})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
	}

	m.operationsTotal = createCounterVec(
		prometheus.BuildFQName(cfg.Namespace, "", "operations_total"),
		"Total number of messaging and schema registry operations",
		[]string{"component", "operation", "status"},
	)
	m.operationDuration = createHistogramVec(
		prometheus.BuildFQName(cfg.Namespace, "", "operation_duration_seconds"),
		"Duration of messaging and schema registry operations in seconds",
		[]string{"component", "operation"},
		prometheus.DefBuckets,
	)
	m.messageSize = createHistogramVec(
		prometheus.BuildFQName(cfg.Namespace, "", "message_size_bytes"),
		"Size of produced and consumed message bodies in bytes",
		[]string{"component", "operation"},
		prometheus.ExponentialBuckets(64, 4, 8),
	)

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.messageSize,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: handler,
	}
	return m
}
