package dashboard

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pcprimedz/dashboard/internal/backendtest"
	"github.com/pcprimedz/dashboard/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildDefaults(t *testing.T) {
	c, err := New().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	if c.Store() == nil || c.Logger() == nil || c.Exchange() == nil {
		t.Fatal("client must be fully wired")
	}
	if c.Store().Authenticated() {
		t.Fatal("a new client starts unauthenticated")
	}
	if c.AuditDropped() != 0 {
		t.Fatal("audit is off by default")
	}
	if got := c.URL("/products/all"); got != "http://localhost:8080/products/all" {
		t.Fatalf("unexpected URL %q", got)
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New()
	c, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer c.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second build")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "not a url"
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildRedisBackendWithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv := backendtest.New(t)
	srv.AddUser("alice", "s3cret", RoleAdmin)

	cfg := testConfig(srv.URL)
	cfg.Session.Backend = BackendRedis
	cfg.Session.Profile = "shop"
	c, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	if _, err := c.Login(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	key := "dashboard:session:shop"
	if got := mr.HGet(key, session.FieldToken); got != c.Store().Token() {
		t.Fatalf("redis token %q does not match store", got)
	}
	if got := mr.HGet(key, session.FieldRole); got != RoleAdmin {
		t.Fatalf("redis role %q", got)
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("logout must delete the redis hash")
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("a caller-owned client must stay open: %v", err)
	}
}

func TestBuildRedisBackendFromAddr(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Session.Backend = BackendRedis
	cfg.Session.RedisAddr = mr.Addr()
	c, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := c.Store().SetAuth(context.Background(), "tok", &session.User{Username: "a"}); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if got := mr.HGet("dashboard:session:default", session.FieldToken); got != "tok" {
		t.Fatalf("expected token in redis, got %q", got)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBuildRedisBackendNeedsAddrOrClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.Backend = BackendRedis
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected error without address or client")
	}
}

func TestBuildFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	cfg := DefaultConfig()
	cfg.Session.Backend = BackendFile
	cfg.Session.File = path

	c, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	if err := c.Store().SetAuth(context.Background(), "tok", nil); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	sess, err := session.NewFileBackend(path).Load(context.Background())
	if err != nil || sess.Token != "tok" {
		t.Fatalf("expected persisted token, got %+v %v", sess, err)
	}
}

func TestBuildExplicitBackendWins(t *testing.T) {
	backend := session.NewMemoryBackend()
	_ = backend.Save(context.Background(), session.Session{Token: "preset", User: &session.User{Username: "p"}})

	cfg := DefaultConfig()
	cfg.Session.Backend = BackendFile
	cfg.Session.File = filepath.Join(t.TempDir(), "unused.json")
	c, err := New().WithConfig(cfg).WithSessionBackend(backend).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	if err := c.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if c.Store().Token() != "preset" {
		t.Fatalf("expected injected backend, got %q", c.Store().Token())
	}
}

func TestBuildDebugLoggingUsesLogger(t *testing.T) {
	srv := backendtest.New(t)
	core, logs := observer.New(zapcore.DebugLevel)

	cfg := testConfig(srv.URL)
	cfg.HTTP.DebugLogging = true
	c, err := New().WithConfig(cfg).WithLogger(zap.New(core)).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	resp, err := c.Get(context.Background(), "/products/all")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if logs.FilterMessage("http request").Len() != 1 {
		t.Fatalf("expected a debug request line, got %v", logs.All())
	}
	if logs.FilterMessage("http error response").Len() != 1 {
		t.Fatal("expected the 401 to be logged as an error response")
	}
}

func TestBuildDebugLoggingKeepsPasswordOut(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddUser("alice", "hunter2-secret", RoleAdmin)
	core, logs := observer.New(zapcore.DebugLevel)

	cfg := testConfig(srv.URL)
	cfg.HTTP.DebugLogging = true
	c, err := New().WithConfig(cfg).WithLogger(zap.New(core)).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	if _, err := c.Login(context.Background(), "alice", "hunter2-secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := c.Login(context.Background(), "alice", "wrong-hunter2-secret"); err == nil {
		t.Fatal("expected rejected login")
	}

	if logs.FilterMessage("http request").Len() == 0 {
		t.Fatal("expected debug request lines")
	}
	for _, e := range logs.All() {
		for k, v := range e.ContextMap() {
			if s, ok := v.(string); ok && strings.Contains(s, "hunter2-secret") {
				t.Fatalf("password leaked in %q field %s: %q", e.Message, k, s)
			}
		}
	}
}

func TestBuildWithHTTPClient(t *testing.T) {
	srv := backendtest.New(t)
	c, err := New().WithConfig(testConfig(srv.URL)).WithHTTPClient(&http.Client{}).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	resp, err := c.Get(context.Background(), "/products/all")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if id := srv.Requests()[0].RequestID; id != "" {
		t.Fatalf("a caller-supplied client skips the middleware chain, got request id %q", id)
	}
}

func TestBuildMetricsToggles(t *testing.T) {
	c, err := New().WithMetricsEnabled(true).WithLatencyHistograms(true).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()
	if !c.metrics.Enabled() || !c.metrics.LatencyEnabled() {
		t.Fatal("metrics toggles not applied")
	}
}
