package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		_ = os.Remove(path + "-journal")
	})
	return store
}

func TestSQLiteStoreMissingKey(t *testing.T) {
	store := newTestSQLiteStore(t)

	value, ok, err := store.Get(context.Background(), "progress")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || value != "" {
		t.Fatalf("expected missing key, got ok=%v value=%q", ok, value)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "notes", `{"1":"check article 30"}`); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "notes")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected key to exist")
	}
	if value != `{"1":"check article 30"}` {
		t.Fatalf("unexpected value: %q", value)
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "total-attempts", "1"); err != nil {
		t.Fatalf("Put initial failed: %v", err)
	}
	if err := store.Put(ctx, "total-attempts", "2"); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "total-attempts")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || value != "2" {
		t.Fatalf("expected overwritten value 2, got ok=%v value=%q", ok, value)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := first.Put(context.Background(), "completed", "[1,2,3]"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore reopen failed: %v", err)
	}
	defer second.Close()

	value, ok, err := second.Get(context.Background(), "completed")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if !ok || value != "[1,2,3]" {
		t.Fatalf("expected persisted value, got ok=%v value=%q", ok, value)
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "progress"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "progress", "{}"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	value, ok, err := store.Get(ctx, "progress")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || value != "{}" {
		t.Fatalf("unexpected value: ok=%v value=%q", ok, value)
	}
}
