package session

import "strings"

// Persisted field names. They are shared by every backend and must stay stable
// so an existing session survives upgrades.
const (
	FieldToken    = "auth_token"
	FieldUsername = "username"
	FieldRole     = "user_role"
)

// User is the identity attached to a session. Role is a hint only; the token's
// own role claim takes precedence when deciding authorization.
type User struct {
	Username string
	Role     string
}

// Session is an immutable snapshot of the store's state.
type Session struct {
	Token string
	User  *User
}

// Authenticated reports whether the snapshot carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

func (s Session) clone() Session {
	out := Session{Token: s.Token}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// normalize enforces the invariant that a user is only present with a
// token. A blank token counts as none; any other token is kept as is.
func (s Session) normalize() Session {
	if strings.TrimSpace(s.Token) == "" {
		return Session{}
	}
	return s
}

// record is the flat persisted form.
type record struct {
	Token    string `json:"auth_token,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"user_role,omitempty"`
}

func toRecord(s Session) record {
	r := record{Token: s.Token}
	if s.User != nil {
		r.Username = s.User.Username
		r.Role = s.User.Role
	}
	return r
}

func (r record) session() Session {
	s := Session{Token: r.Token}
	if r.Username != "" || r.Role != "" {
		s.User = &User{Username: r.Username, Role: r.Role}
	}
	return s.normalize()
}
