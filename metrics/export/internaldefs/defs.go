package internaldefs

import (
	"github.com/pcprimedz/dashboard"
)

// CounterDef names one client counter for export.
type CounterDef struct {
	ID   dashboard.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   dashboard.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported alongside the counters; its value comes from
// the audit dispatcher, not the snapshot.
const (
	AuditDroppedName = "dashboard_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped under dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: dashboard.MetricRequest, Name: "dashboard_requests_total", Help: "Requests sent to the backend."},
	{ID: dashboard.MetricRequestNetworkFailure, Name: "dashboard_request_network_failures_total", Help: "Requests that failed before a response arrived."},
	{ID: dashboard.MetricAuthorizationExpired, Name: "dashboard_authorization_expired_total", Help: "Responses answered with 401."},
	{ID: dashboard.MetricUpload, Name: "dashboard_uploads_total", Help: "Requests with a multipart or binary body."},
	{ID: dashboard.MetricLoginSuccess, Name: "dashboard_login_success_total", Help: "Successful logins."},
	{ID: dashboard.MetricLoginFailure, Name: "dashboard_login_failure_total", Help: "Failed logins."},
	{ID: dashboard.MetricRegisterSuccess, Name: "dashboard_register_success_total", Help: "Successful admin registrations."},
	{ID: dashboard.MetricRegisterFailure, Name: "dashboard_register_failure_total", Help: "Failed admin registrations."},
	{ID: dashboard.MetricMissingToken, Name: "dashboard_missing_token_total", Help: "Successful exchanges whose response carried no token."},
	{ID: dashboard.MetricSessionAdopted, Name: "dashboard_session_adopted_total", Help: "Sessions stored after an exchange."},
	{ID: dashboard.MetricSessionCleared, Name: "dashboard_session_cleared_total", Help: "Sessions ended by logout or expiry."},
	{ID: dashboard.MetricLogout, Name: "dashboard_logout_total", Help: "Logout calls."},
}

var HistogramDefs = []HistogramDef{
	{ID: dashboard.MetricRequestLatency, Name: "dashboard_request_latency_seconds", Help: "Request latency histogram."},
}

// HistogramBounds are the "le" labels matching dashboard.LatencyBucketBounds.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix spells HistogramBounds for instrument names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
