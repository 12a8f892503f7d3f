// Package middleware provides http.RoundTripper decorators for the dashboard
// client's outbound requests.
//
//   - [Chain] composes decorators around a base transport.
//   - [RequestID] stamps every request with an X-Request-Id.
//   - [UserAgent] sets a default User-Agent.
//   - [Logging] writes zap debug lines with a redacted token and a body preview.
//
// # Architecture boundaries
//
// Decorators only observe or annotate requests. Bearer injection and the 401
// handling live in the dashboard package's Client.Do, which runs before the
// transport chain.
//
// # What this package must NOT do
//
//   - Import dashboard (no upward imports).
//   - Log a full bearer token or a full request body.
//   - Consume a request or response body without restoring it.
package middleware
