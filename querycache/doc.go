// Package querycache keeps recent list responses in memory so repeated reads
// of the same resource do not hit the backend.
//
// Keys name a query ("products", "components/cpu"). A mutation invalidates
// its key and every key below it. Concurrent misses on one key share a single
// fetch.
//
// # What this package must NOT do
//
//   - Cache errors.
//   - Outlive a session: callers purge the cache when authorization expires.
package querycache
