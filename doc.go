// Package dashboard is the client side of the PC-shop admin dashboard: a
// session-aware HTTP client that attaches the admin's bearer token to every
// request and tears the session down when the backend answers 401.
//
// A [Client] is assembled with [Builder] (New().WithConfig(cfg).Build()) and
// owns exactly one [session.Store]. Callers never touch credentials directly:
// [Client.Login] and [Client.Register] perform the credential exchange and
// adopt the result, [Client.Do] authorizes outbound requests, and
// [Client.IsAdmin] answers the only authorization question the dashboard asks.
//
// # Authorization expiry
//
// A 401 from any request clears the session, notifies the configured
// [Navigator] with the login route, and is reported to the caller through
// [Response.AuthorizationExpired]. The response itself is returned unchanged
// and no error is raised; only transport failures produce a [*NetworkError].
//
// # Two error channels
//
// Errors carry full diagnostic detail for logs. [UserMessage] maps any error
// to a short fixed sentence safe to show a person; it never includes server
// text. [Report] writes the diagnostic to a zap logger and returns the user
// sentence.
//
// # What this package must NOT do
//
//   - Check token expiry or signatures locally. The server is the only judge.
//   - Keep session state anywhere but the injected store.
//   - Import api or querycache (no upward imports).
package dashboard
