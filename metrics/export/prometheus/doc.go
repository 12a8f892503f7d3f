// Package prometheus renders dashboard client metrics in the Prometheus text
// exposition format. Counters are named dashboard_*_total and the request
// latency histogram is dashboard_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register with a global Prometheus registry. Callers mount Handler.
//   - Change client state.
package prometheus
