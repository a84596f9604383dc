// Package prometheus exposes session store metrics to Prometheus.
//
// [PrometheusExporter] renders every counter and the mutation latency
// histogram in text exposition format behind an [http.Handler]. [Collector]
// serves the same values through a client_golang registry. Counter names are
// golink_*_total; the histogram is golink_mutation_latency_seconds.
//
// # What this package must NOT do
//
//   - Register with the global Prometheus registry. Callers register the
//     Collector or mount the Handler.
//   - Mutate store state.
package prometheus
