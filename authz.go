package dashboard

import (
	"github.com/pcprimedz/dashboard/jwt"
	"github.com/pcprimedz/dashboard/session"
)

// RoleAdmin is the only role the dashboard distinguishes.
const RoleAdmin = "admin"

// Role returns the role claim of the token in store. A missing or
// undecodable token, or one without a string role claim, has no role.
//
// The role stored with the user is not consulted: it is copied from the same
// claim when a session is adopted, and the token is the only authority.
func Role(store *session.Store) string {
	if store == nil {
		return ""
	}
	token := store.Token()
	if token == "" {
		return ""
	}

	// Claims are decoded on every call and never cached apart from the token.
	claims, err := jwt.Decode(token)
	if err != nil {
		return ""
	}
	return claims.Role
}

// IsAdmin reports whether the session in store belongs to an admin. It is
// false without a token and never panics.
func IsAdmin(store *session.Store) bool {
	return Role(store) == RoleAdmin
}

// Role is Role(c.Store()).
func (c *Client) Role() string {
	return Role(c.store)
}

// IsAdmin is IsAdmin(c.Store()).
func (c *Client) IsAdmin() bool {
	return IsAdmin(c.store)
}

// RequireAdmin gates admin-only operations: ErrNotAuthenticated without a
// session, ErrForbidden for any other role.
func (c *Client) RequireAdmin() error {
	if !c.store.Authenticated() {
		return ErrNotAuthenticated
	}
	if !c.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
