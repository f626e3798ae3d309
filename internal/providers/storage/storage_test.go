package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	key, size, err := store.Put(ctx, bytes.NewBufferString("annex contents"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if size != int64(len("annex contents")) {
		t.Errorf("size = %d", size)
	}

	reader, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()
	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "annex contents" {
		t.Errorf("content = %q", content)
	}
}

func TestLocalStoreDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	key, _, err := store.Put(ctx, bytes.NewBufferString("x"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want %v", err, ErrNotFound)
	}

	// Deleting a missing blob is not an error.
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestLocalStoreRejectsBadKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"", "../../etc/passwd", "not-a-uuid"} {
		if _, err := store.Open(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Open(%q) err = %v, want %v", key, err, ErrInvalidKey)
		}
	}
}

func TestLocalStoreRequiresRoot(t *testing.T) {
	if _, err := NewLocalStore("   "); err == nil {
		t.Error("expected an error for an empty root")
	}
}
