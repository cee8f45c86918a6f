// Package metrics defines the gateway's Prometheus collectors. All
// collectors register on the default registry; main exposes them on
// /metrics via promhttp.
package metrics
