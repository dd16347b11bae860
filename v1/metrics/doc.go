// Package metrics exposes Prometheus metrics for the messaging clients.
//
// *Metrics owns an isolated Prometheus registry and an HTTP server for
// /metrics. It implements observability.Observer, so every produce, consume,
// registry lookup and registration reported by the other packages turns into
// counter, latency and size samples labelled by component and operation.
//
// Direct usage:
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		Namespace:   "topicstream",
//		ServiceName: "orders-service",
//	})
//	go m.Server.ListenAndServe()
//
//	kafkaClient = kafkaClient.WithObserver(m)
//	registry = registry.WithObserver(m)
//
// With FX, metrics.FXModule provides the same *Metrics as
// observability.Observer; the other FX modules inject it automatically.
//
// Custom metrics can be registered next to the built-in ones with
// CreateCounter, CreateHistogram and CreateGauge.
package metrics
