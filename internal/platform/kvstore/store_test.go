package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

// exerciseStore runs the shared contract against one backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing): got=%v want ErrNotFound", err)
	}
	if err := s.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// jsonb may reformat the document, so compare decoded values.
	var doc map[string]int
	if err := json.Unmarshal(got, &doc); err != nil || doc["a"] != 2 {
		t.Fatalf("Get: got=%s err=%v want a=2", got, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: got=%v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	v := []byte(`"x"`)
	_ = m.Set(context.Background(), "k", v)
	v[1] = 'y'
	got, _ := m.Get(context.Background(), "k")
	if string(got) != `"x"` {
		t.Fatalf("stored value aliased caller slice: %s", got)
	}
}

func TestNamespace(t *testing.T) {
	base := NewMemory()
	a := WithNamespace(base, "a")
	b := WithNamespace(base, "b")
	ctx := context.Background()
	_ = a.Set(ctx, "k", []byte(`1`))
	if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("namespaces leak: %v", err)
	}
	if _, err := base.Get(ctx, "a:k"); err != nil {
		t.Fatalf("prefixed key missing: %v", err)
	}
	exerciseStore(t, a)
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(logger.Nop(), filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres kv tests")
	}
	s, err := NewPostgres(logger.Nop(), dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer s.Close()
	exerciseStore(t, WithNamespace(s, "kvstore_test"))
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis kv tests")
	}
	s, err := NewRedis(context.Background(), logger.Nop(), addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer s.Close()
	exerciseStore(t, WithNamespace(s, "kvstore_test"))
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), logger.Nop(), Config{Backend: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
