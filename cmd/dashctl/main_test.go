package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pcprimedz/dashboard"
	"github.com/pcprimedz/dashboard/internal/backendtest"
)

type harness struct {
	t       *testing.T
	srv     *backendtest.Server
	dir     string
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := backendtest.New(t)
	t.Setenv("DASHBOARD_BASE_URL", srv.URL)
	t.Setenv("DASHBOARD_PASSWORD", "")
	dir := t.TempDir()
	return &harness{t: t, srv: srv, dir: dir, session: filepath.Join(dir, "session.json")}
}

// run executes one dashctl invocation, as a separate process would.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	cmd := newApp(&out, &errOut).rootCmd()
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(h.dir, "missing.env"),
		"--session-file", h.session,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	h.srv.AddUser("alice", "s3cret", dashboard.RoleAdmin)
	if _, _, err := h.run("login", "alice", "-p", "s3cret"); err != nil {
		h.t.Fatalf("login: %v", err)
	}
}

func userMessage(t *testing.T, err error) string {
	t.Helper()
	var reported *reportedError
	if !errors.As(err, &reported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	return reported.msg
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "s3cret", dashboard.RoleAdmin)

	out, _, err := h.run("login", "alice", "-p", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as alice (admin)") {
		t.Fatalf("unexpected login output %q", out)
	}

	out, _, err = h.run("whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "alice (admin) admin=true") {
		t.Fatalf("unexpected whoami output %q", out)
	}

	if _, _, err := h.run("logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, _, _ = h.run("whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Fatalf("expected logged out, got %q", out)
	}
}

func TestWhoamiWithTokenOnlySession(t *testing.T) {
	h := newHarness(t)
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"admin"}`))
	doc := `{"auth_token":"eyJhbGciOiJub25lIn0.` + payload + `.sig"}`
	if err := os.WriteFile(h.session, []byte(doc), 0o600); err != nil {
		t.Fatalf("write session: %v", err)
	}

	out, _, err := h.run("whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "(unknown) (admin) admin=true") {
		t.Fatalf("token-only session must count as logged in, got %q", out)
	}
}

func TestLoginRejectedShowsFriendlyMessage(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "s3cret", dashboard.RoleAdmin)

	_, _, err := h.run("login", "alice", "-p", "wrong")
	if got := userMessage(t, err); got != dashboard.MsgBadLogin {
		t.Fatalf("message = %q, want %q", got, dashboard.MsgBadLogin)
	}
}

func TestLoginNeedsPassword(t *testing.T) {
	h := newHarness(t)
	if _, _, err := h.run("login", "alice"); err == nil {
		t.Fatal("expected missing password error")
	}
	if h.srv.Count("POST", "/admin/login") != 0 {
		t.Fatal("login must not reach the backend without a password")
	}
}

func TestAdminCommandRequiresSession(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("products", "list")
	if got := userMessage(t, err); got != dashboard.MsgNotAuthenticated {
		t.Fatalf("message = %q", got)
	}
	if h.srv.Count("GET", "/products/all") != 0 {
		t.Fatal("unauthenticated command reached the backend")
	}
}

func TestNonAdminIsRefused(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("bob", "pw", "editor")
	if _, _, err := h.run("login", "bob", "-p", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, _, err := h.run("orders", "list")
	if got := userMessage(t, err); got != dashboard.MsgAdminRequired {
		t.Fatalf("message = %q", got)
	}
}

func TestProductsListAndDelete(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.Seed("products",
		map[string]any{"name": "Ryzen 5", "brand": "AMD", "quantity": 4, "price": 199.5, "category_id": 1, "etat": "neuf"},
		map[string]any{"name": "Core i7", "brand": "Intel", "quantity": 2, "price": 320, "category_id": 1},
	)

	out, _, err := h.run("products", "list", "--search", "amd")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Ryzen 5") || strings.Contains(out, "Core i7") {
		t.Fatalf("unexpected list output:\n%s", out)
	}
	if !strings.Contains(out, "Neuf") {
		t.Fatalf("condition not normalized:\n%s", out)
	}

	if _, _, err := h.run("products", "delete", "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if items := h.srv.Items("products"); len(items) != 1 {
		t.Fatalf("expected 1 product left, got %d", len(items))
	}

	out, _, err = h.run("products", "list", "--csv")
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if !strings.Contains(out, "Core i7") {
		t.Fatalf("csv missing product:\n%s", out)
	}
}

func TestExpiredSessionIsClearedAndReported(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.ExpireTokens()

	_, errOut, err := h.run("orders", "list")
	if got := userMessage(t, err); got != dashboard.MsgSessionExpired {
		t.Fatalf("message = %q", got)
	}
	if !strings.Contains(errOut, "Session expired") {
		t.Fatalf("expected expiry notice, got %q", errOut)
	}

	out, _, _ := h.run("whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Fatalf("session should be cleared on disk, got %q", out)
	}
}

func TestOrderConfirm(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.Seed("orders", map[string]any{"full_name": "Sara", "total": 1200, "confirmed": false})

	if _, _, err := h.run("orders", "confirm", "1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := h.srv.Items("orders")[0]["confirmed"]; got != true {
		t.Fatalf("confirmed = %v", got)
	}

	_, _, err := h.run("orders", "delete", "42")
	if got := userMessage(t, err); got != dashboard.MsgNotFound {
		t.Fatalf("message = %q", got)
	}
}

func TestComponentsUnknownKind(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, _, err := h.run("components", "list", "gpu")
	if got := userMessage(t, err); got != dashboard.MsgValidation {
		t.Fatalf("message = %q", got)
	}
}

func TestSliderToggle(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.Seed("slider", map[string]any{"product_id": 4, "order": 1, "is_active": true})

	out, _, err := h.run("slider", "toggle", "1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !strings.Contains(out, "now hidden") {
		t.Fatalf("unexpected toggle output %q", out)
	}
}

func TestLogsFilterAndPage(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.Seed("logs",
		map[string]any{"action": "CREATE", "entity_type": "product", "entity_name": "Ryzen 5"},
		map[string]any{"action": "DELETE", "entity_type": "category", "entity_name": "Old"},
	)

	out, _, err := h.run("logs", "list", "--action", "create")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(out, "Ryzen 5") || strings.Contains(out, "Old") {
		t.Fatalf("filter not applied:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 1 (1 entries)") {
		t.Fatalf("missing page footer:\n%s", out)
	}
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.Seed("orders",
		map[string]any{"full_name": "Sara", "total": 100, "confirmed": true},
		map[string]any{"full_name": "Yacine", "total": 50},
	)
	h.srv.Seed("products", map[string]any{"name": "Fan", "quantity": 3, "category_id": 1})

	out, _, err := h.run("stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Revenue:     150.00", "2 (1 pending, 1 completed)", "1 (1 low stock)", "Fan"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}
