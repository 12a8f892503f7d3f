package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/pcprimedz/dashboard/internal/backendtest"
)

// fixedServer answers every request with status and body.
func fixedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginScenario(t *testing.T) {
	srv := fixedServer(t, http.StatusOK, `{"token":"a.b.c","username":"alice"}`)
	c, _ := newTestClient(t, srv.URL)

	user, err := c.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "alice" || user.Role != "" {
		t.Fatalf("unexpected user %+v", user)
	}
	if c.Store().Token() != "a.b.c" {
		t.Fatalf("expected token a.b.c, got %q", c.Store().Token())
	}
	if got := c.Store().User(); got == nil || got.Username != "alice" {
		t.Fatalf("unexpected stored user %+v", got)
	}
	if c.IsAdmin() {
		t.Fatal("an undecodable token is never admin")
	}
	if got := c.metrics.Value(MetricLoginSuccess); got != 1 {
		t.Fatalf("expected 1 login success, got %d", got)
	}
}

func TestTokenShapesNormalizeIdentically(t *testing.T) {
	bodies := map[string]string{
		"token":             `{"token":"T","username":"alice"}`,
		"access_token":      `{"access_token":"T","user":{"username":"alice"}}`,
		"data.token":        `{"data":{"token":"T","username":"alice"}}`,
		"data.access_token": `{"data":{"access_token":"T","user":{"username":"alice"}}}`,
	}
	want := Credentials{Token: "T", Username: "alice"}

	for name, body := range bodies {
		srv := fixedServer(t, http.StatusOK, body)
		ex := NewExchange(srv.URL, nil, nil)

		creds, err := ex.Login(context.Background(), "alice", "pw")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if *creds != want {
			t.Fatalf("%s: got %+v, want %+v", name, *creds, want)
		}
	}
}

func TestTokenLocationOrder(t *testing.T) {
	srv := fixedServer(t, http.StatusOK, `{"access_token":"second","token":"first","data":{"token":"third"}}`)
	creds, err := NewExchange(srv.URL, nil, nil).Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if creds.Token != "first" {
		t.Fatalf("top-level token must win, got %q", creds.Token)
	}
}

func TestMissingTokenIsRejected(t *testing.T) {
	bodies := []string{
		`{"message":"ok"}`,
		`{"token":""}`,
		`{"token":"   "}`,
		`{"token":42}`,
		`{"data":{"user":{"token":"nested-too-deep"}}}`,
		`not json`,
		``,
	}
	for _, body := range bodies {
		srv := fixedServer(t, http.StatusOK, body)
		c, _ := newTestClient(t, srv.URL)

		_, err := c.Login(context.Background(), "alice", "pw")
		if !errors.Is(err, ErrMissingToken) {
			t.Fatalf("%q: expected ErrMissingToken, got %v", body, err)
		}
		if c.Store().Authenticated() {
			t.Fatalf("%q: no session may be adopted", body)
		}
		if got := c.metrics.Value(MetricMissingToken); got != 1 {
			t.Fatalf("%q: expected missing token counted, got %d", body, got)
		}
	}
}

func TestUsernameFallsBackToSubmitted(t *testing.T) {
	srv := fixedServer(t, http.StatusOK, `{"token":"T"}`)
	creds, err := NewExchange(srv.URL, nil, nil).Login(context.Background(), "  carol ", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if creds.Username != "carol" {
		t.Fatalf("expected submitted username, got %q", creds.Username)
	}
}

func TestLoginAgainstBackend(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddUser("alice", "s3cret", RoleAdmin)
	c, nav := newTestClient(t, srv.URL)

	user, err := c.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != RoleAdmin || !c.IsAdmin() {
		t.Fatalf("expected admin, got %+v", user)
	}
	if err := c.RequireAdmin(); err != nil {
		t.Fatalf("require admin: %v", err)
	}

	resp, err := c.Get(context.Background(), "/admin/me")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token from login must authorize, got %d", resp.StatusCode)
	}
	if len(nav.Calls()) != 0 {
		t.Fatal("unexpected redirect")
	}
}

func TestRejectedLoginKeepsSessionAndDoesNotRedirect(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddUser("alice", "s3cret", RoleAdmin)
	c, nav := newTestClient(t, srv.URL)

	_, err := c.Login(context.Background(), "alice", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if apiErr.Message != "Invalid credentials" || apiErr.Code != "invalid_credentials" {
		t.Fatalf("expected enveloped message and code, got %+v", apiErr)
	}
	if UserMessage(err) != MsgBadLogin {
		t.Fatalf("expected bad login message, got %q", UserMessage(err))
	}
	if c.Store().Authenticated() {
		t.Fatal("failed login must not create a session")
	}
	if len(nav.Calls()) != 0 {
		t.Fatal("a rejected login is not an expired session")
	}
	if got := c.metrics.Value(MetricLoginFailure); got != 1 {
		t.Fatalf("expected 1 login failure, got %d", got)
	}
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	srv := backendtest.New(t)
	c, _ := newTestClient(t, srv.URL)

	for _, tc := range []struct{ user, pass string }{{"", "pw"}, {"alice", ""}, {"   ", "pw"}} {
		if _, err := c.Login(context.Background(), tc.user, tc.pass); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%+v: expected ErrInvalidInput, got %v", tc, err)
		}
	}
	if n := srv.Count(http.MethodPost, "/admin/login"); n != 0 {
		t.Fatalf("validation failures must not reach the backend, saw %d", n)
	}
}

func TestRegister(t *testing.T) {
	srv := backendtest.New(t)
	c, _ := newTestClient(t, srv.URL)
	ctx := context.Background()

	user, err := c.Register(ctx, "bob", "bob@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "bob" || !c.IsAdmin() {
		t.Fatalf("expected admin bob, got %+v", user)
	}

	_, err = c.Register(ctx, "bob", "bob@example.com", "s3cret!")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	if UserMessage(err) != MsgConflict {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
	if c.Store().User().Username != "bob" {
		t.Fatal("a failed registration must not touch the current session")
	}

	if _, err := c.Register(ctx, "dave", "not-an-email", "s3cret!"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterWithoutRoleClaim(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetRegisterRole("")
	c, _ := newTestClient(t, srv.URL)

	user, err := c.Register(context.Background(), "erin", "erin@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != "" || c.IsAdmin() {
		t.Fatalf("expected no role, got %+v", user)
	}
	if !c.Store().Authenticated() {
		t.Fatal("registration without a role still signs in")
	}
}

func TestRegisterFallbackMessage(t *testing.T) {
	srv := fixedServer(t, http.StatusBadRequest, `{}`)
	_, err := NewExchange(srv.URL, nil, nil).Register(context.Background(), "bob", "bob@example.com", "pw")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Admin registration failed" {
		t.Fatalf("expected fallback message, got %v", err)
	}
}

func TestLoginAuditEvents(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddUser("alice", "s3cret", RoleAdmin)
	sink := &recordingSink{}
	c, _ := newTestClient(t, srv.URL, func(b *Builder) {
		cfg := testConfig(srv.URL)
		cfg.Audit.Enabled = true
		b.WithConfig(cfg).WithAuditSink(sink)
	})
	ctx := context.Background()

	_, _ = c.Login(ctx, "alice", "nope")
	if _, err := c.Login(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_ = c.Close()

	failures := sink.ofType(AuditLoginFailure)
	if len(failures) != 1 || failures[0].Error != "invalid_credentials" || failures[0].Success {
		t.Fatalf("unexpected failure events %+v", failures)
	}
	successes := sink.ofType(AuditLoginSuccess)
	if len(successes) != 1 || successes[0].Role != RoleAdmin {
		t.Fatalf("unexpected success events %+v", successes)
	}
	logouts := sink.ofType(AuditLogout)
	if len(logouts) != 1 || logouts[0].Username != "alice" {
		t.Fatalf("unexpected logout events %+v", logouts)
	}
}

func TestLogout(t *testing.T) {
	srv := backendtest.New(t)
	c, nav, _ := loggedIn(t, srv, "alice", RoleAdmin)

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.Store().Authenticated() {
		t.Fatal("logout must clear the session")
	}
	if calls := nav.Calls(); len(calls) != 1 || calls[0] != "/login" {
		t.Fatalf("expected redirect to /login, got %v", calls)
	}
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if got := c.metrics.Value(MetricSessionCleared); got != 1 {
		t.Fatalf("second logout clears nothing, got %d clears", got)
	}
}

func TestAdopt(t *testing.T) {
	c, _ := newTestClient(t, "http://localhost:1")
	ctx := context.Background()

	if _, err := c.Adopt(ctx, nil); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for nil, got %v", err)
	}
	if _, err := c.Adopt(ctx, &Credentials{Token: " ", Username: "x"}); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for blank token, got %v", err)
	}
	if c.Store().Authenticated() {
		t.Fatal("rejected adopt must leave the store empty")
	}
}

func TestRestoreFromFile(t *testing.T) {
	srv := backendtest.New(t)
	path := filepath.Join(t.TempDir(), "session.json")
	fileBackend := func(b *Builder) {
		cfg := testConfig(srv.URL)
		cfg.Session.Backend = BackendFile
		cfg.Session.File = path
		cfg.Audit.Enabled = true
		b.WithConfig(cfg)
	}

	_, _, token := loggedIn(t, srv, "alice", RoleAdmin, fileBackend)

	sink := &recordingSink{}
	second, _ := newTestClient(t, srv.URL, fileBackend, func(b *Builder) { b.WithAuditSink(sink) })
	if second.Store().Authenticated() {
		t.Fatal("a new client starts unauthenticated")
	}
	if err := second.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if second.Store().Token() != token || !second.IsAdmin() {
		t.Fatal("restored session must match the persisted one")
	}
	_ = second.Close()
	if len(sink.ofType(AuditSessionRestored)) != 1 {
		t.Fatalf("expected a session_restored event, got %+v", sink.Events())
	}
}
