package localstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, KeySession); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, KeySession, []byte(`{"username":"bob"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, KeySession, []byte(`{"username":"alice"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, KeySession)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"username":"alice"}` {
		t.Fatalf("unexpected value: %s", got)
	}
	if err := s.Delete(ctx, KeySession); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, KeySession); err != nil {
		t.Fatalf("delete twice should be a no-op: %v", err)
	}
	if _, err := s.Get(ctx, KeySession); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := first.Put(context.Background(), KeyDocuments, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Get(context.Background(), KeyDocuments)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("unexpected value after reopen: %s", got)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(mr.Addr(), "", "test:local")
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)

	if err := s.Put(context.Background(), KeyDocuments, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("test:local:" + KeyDocuments) {
		t.Fatalf("expected prefixed key in redis")
	}
}

func TestRedisStoreRequiresAddr(t *testing.T) {
	if _, err := NewRedisStore(" ", "", ""); err == nil {
		t.Fatalf("expected error for empty redis addr")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	s, err := Open(Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open default driver: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("default driver should be file, got %T", s)
	}
	if _, err := Open(Config{Driver: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestPostgresStoreRequiresDatabaseURL(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		if _, err := Open(Config{Driver: "postgres", DatabaseURL: dsn}); err == nil {
			t.Fatalf("expected error for database url %q", dsn)
		}
	}
	if _, err := NewGormStore(""); err == nil {
		t.Fatalf("expected error from NewGormStore without dsn")
	}
}
