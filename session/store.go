package session

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrInvalidCredential is returned by [Store.SetAuth] when the token is empty.
var ErrInvalidCredential = errors.New("invalid credential: token is empty")

// ErrWatchUnsupported is returned by [Store.Watch] when the backend cannot
// report external changes.
var ErrWatchUnsupported = errors.New("session backend does not support watching")

// Backend persists a session between process runs.
type Backend interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, sess Session) error
	Clear(ctx context.Context) error
}

// Watcher is implemented by backends that can observe writes made by other
// processes. onChange is invoked after each external change until ctx ends.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Store is the single owner of the current session. It is safe for concurrent
// use; readers never block on backend I/O.
type Store struct {
	// writeMu serializes writers so the backend sees writes in the same order
	// as the in-memory state.
	writeMu sync.Mutex

	mu      sync.RWMutex
	current Session

	backend Backend
}

// NewStore returns an Unauthenticated store persisting to backend. A nil
// backend selects [NewMemoryBackend]. Call [Store.Restore] to load a
// previously persisted session.
func NewStore(backend Backend) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend}
}

// SetAuth replaces the session with token and user. The token is validated
// and persisted before the in-memory state changes, so on error the store is
// left exactly as it was. user is copied. The token is stored verbatim; a
// blank one is rejected.
func (s *Store) SetAuth(ctx context.Context, token string, user *User) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidCredential
	}

	next := Session{Token: token, User: user}.clone()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backend.Save(ctx, next); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}

// ClearAuth removes token and user together. It is idempotent and reports
// whether this call performed the Authenticated to Unauthenticated
// transition; among concurrent callers exactly one observes true.
//
// The in-memory state is cleared even if the backend fails.
func (s *Store) ClearAuth(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	cleared := s.current.Authenticated()
	s.current = Session{}
	s.mu.Unlock()

	return cleared, s.backend.Clear(ctx)
}

// Token returns the current bearer token or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// User returns a copy of the current user or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.User == nil {
		return nil
	}
	u := *s.current.User
	return &u
}

// Session returns a consistent snapshot of token and user.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}

// Restore replaces the in-memory state with what the backend holds. A
// persisted user without a token is discarded.
func (s *Store) Restore(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	loaded, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = loaded.normalize().clone()
	s.mu.Unlock()
	return nil
}

// Watch blocks, restoring the session whenever the backend reports an
// external change, until ctx is done. onReload, when non-nil, receives the
// outcome of every reload.
func (s *Store) Watch(ctx context.Context, onReload func(Session, error)) error {
	w, ok := s.backend.(Watcher)
	if !ok {
		return ErrWatchUnsupported
	}
	return w.Watch(ctx, func() {
		err := s.Restore(ctx)
		if onReload != nil {
			onReload(s.Session(), err)
		}
	})
}
