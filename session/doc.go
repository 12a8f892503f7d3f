// Package session holds the dashboard's authenticated session: the bearer token
// and the user identity it was issued to.
//
// # State
//
// A [Store] is either Unauthenticated (no token, no user) or Authenticated
// (token present, user optional). There is no "expired but present" state:
// expiry is discovered reactively by the HTTP client, which calls
// [Store.ClearAuth].
//
// # Persistence
//
// Every write goes through a [Backend] so the session survives restarts.
// [MemoryBackend] is process-local, [RedisBackend] keeps one hash per profile,
// and [FileBackend] writes a 0600 JSON file that other processes can observe
// through [Watcher].
//
// # What this package must NOT do
//
//   - Import dashboard or jwt (no upward imports).
//   - Validate or interpret tokens beyond rejecting empty ones.
//   - Hand out pointers into stored state.
package session
