// Package metrics exposes Prometheus instrumentation for the doorbell core.
//
// Metrics is a doorbell.Recorder. Collectors are registered on the registry
// passed to New so tests and the HTTP /metrics endpoint can each use their own.
//
//	m := metrics.New(prometheus.NewRegistry())
//	handler.SetRecorder(m)
//	r.Handle("/metrics", m.Handler())
package metrics
