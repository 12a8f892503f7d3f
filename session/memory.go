package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps the session in process memory only.
type MemoryBackend struct {
	mu  sync.Mutex
	rec record
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load implements [Backend].
func (m *MemoryBackend) Load(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.session(), nil
}

// Save implements [Backend].
func (m *MemoryBackend) Save(_ context.Context, sess Session) error {
	m.mu.Lock()
	m.rec = toRecord(sess)
	m.mu.Unlock()
	return nil
}

// Clear implements [Backend].
func (m *MemoryBackend) Clear(context.Context) error {
	m.mu.Lock()
	m.rec = record{}
	m.mu.Unlock()
	return nil
}
