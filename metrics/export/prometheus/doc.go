// Package prometheus provides Prometheus collectors for authclient metrics.
//
// [NewPrometheusExporter] accepts an [authclient.Engine] and exposes an
// [http.Handler] that renders all authclient counters in Prometheus text
// exposition format. Counter names are prefixed authclient_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
