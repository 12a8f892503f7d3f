package dashboard

import (
	"context"
	"sync"
	"testing"

	"github.com/pcprimedz/dashboard/internal/backendtest"
)

type navRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (n *navRecorder) RedirectToLogin(_ context.Context, route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *navRecorder) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Events() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEvent(nil), s.events...)
}

func (s *recordingSink) ofType(eventType string) []AuditEvent {
	var out []AuditEvent
	for _, e := range s.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Metrics.Enabled = true
	return cfg
}

// newTestClient builds a client against baseURL with metrics on and a
// recording navigator. configure runs before Build.
func newTestClient(t *testing.T, baseURL string, configure ...func(*Builder)) (*Client, *navRecorder) {
	t.Helper()

	nav := &navRecorder{}
	b := New().WithConfig(testConfig(baseURL)).WithNavigator(nav)
	for _, fn := range configure {
		fn(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, nav
}

// loggedIn returns a client holding a fresh token for username from srv.
func loggedIn(t *testing.T, srv *backendtest.Server, username, role string, configure ...func(*Builder)) (*Client, *navRecorder, string) {
	t.Helper()

	c, nav := newTestClient(t, srv.URL, configure...)
	token := srv.Token(username, role)
	if _, err := c.Adopt(context.Background(), &Credentials{Token: token, Username: username}); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	return c, nav, token
}
