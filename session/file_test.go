package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileBackendWritesPrivateJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	backend := NewFileBackend(path)
	store := NewStore(backend)

	if err := store.SetAuth(context.Background(), "a.b.c", &User{Username: "alice", Role: "admin"}); err != nil {
		t.Fatalf("set auth: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %v", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["auth_token"] != "a.b.c" || doc["username"] != "alice" || doc["user_role"] != "admin" {
		t.Fatalf("unexpected document: %v", doc)
	}
}

func TestFileBackendMissingFileIsEmpty(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))
	sess, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.Authenticated() {
		t.Fatalf("expected empty session, got %+v", sess)
	}
	if err := backend.Clear(context.Background()); err != nil {
		t.Fatalf("clear absent file: %v", err)
	}
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewStore(NewFileBackend(path))
	if err := store.Restore(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
	if store.Authenticated() {
		t.Fatal("failed restore must leave store unauthenticated")
	}
}

func TestFileBackendWatchPicksUpExternalLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ours := NewStore(NewFileBackend(path))
	if err := ours.SetAuth(ctx, "tok", &User{Username: "alice"}); err != nil {
		t.Fatalf("set auth: %v", err)
	}

	reloaded := make(chan Session, 8)
	go ours.Watch(ctx, func(sess Session, err error) {
		if err == nil {
			reloaded <- sess
		}
	})
	// give the watcher time to register before the external write
	time.Sleep(100 * time.Millisecond)

	other := NewStore(NewFileBackend(path))
	if _, err := other.ClearAuth(ctx); err != nil {
		t.Fatalf("external clear: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case sess := <-reloaded:
			if !sess.Authenticated() {
				if ours.Authenticated() {
					t.Fatal("store still authenticated after reload")
				}
				return
			}
		case <-deadline:
			t.Fatal("watcher did not observe external logout")
		}
	}
}
