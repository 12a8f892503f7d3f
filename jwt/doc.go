// Package jwt decodes the claims carried by the dashboard's bearer tokens.
//
// The decoder is deliberately unverified: the client never holds the signing key, and the
// backend remains the only authority on whether a token is still valid. Claims are read so the
// client can make presentation decisions (is the caller an admin, who is logged in), never to
// grant access on its own.
//
// # What this package must NOT do
//
//   - Cache decoded claims apart from the token they came from.
//   - Check exp/nbf; expiry is detected by the server answering 401.
//   - Import the dashboard root package or session (no upward imports).
package jwt
