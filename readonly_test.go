package objectstore_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/backend/memory"
)

func TestReadOnlyStore_ReadOperations(t *testing.T) {
	ctx := t.Context()

	mem := memory.NewMemoryBackend()
	if err := mem.Put(ctx, "memory://ro/file.txt", []byte("readonly")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ro := objectstore.NewReadOnly(mem)

	got, err := objectstore.ReadAll(ctx, ro, "memory://ro/file.txt")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "readonly" {
		t.Errorf("Expected %q, got %q", "readonly", got)
	}

	paths, err := ro.List(ctx, "memory://ro", nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !slices.Equal(paths, []string{"memory://ro/file.txt"}) {
		t.Errorf("Unexpected listing %q", paths)
	}

	if ok, _ := ro.Exists(ctx, "memory://ro/file.txt"); !ok {
		t.Error("Expected file to exist")
	}
}

func TestReadOnlyStore_WriteOperationsFail(t *testing.T) {
	ctx := t.Context()

	mem := memory.NewMemoryBackend()
	if err := mem.Put(ctx, "memory://ro/file.txt", []byte("test")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ro := objectstore.NewReadOnly(mem)

	if err := ro.Put(ctx, "memory://ro/new.txt", []byte("x")); !errors.Is(err, objectstore.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly on Put, got %v", err)
	}
	if err := ro.Remove(ctx, "memory://ro/file.txt", false); !errors.Is(err, objectstore.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly on Remove, got %v", err)
	}
	if _, err := ro.Open(ctx, "memory://ro/file.txt", objectstore.ModeWriteBinary); !errors.Is(err, objectstore.ErrUnsupportedOperation) {
		t.Errorf("Expected ErrUnsupportedOperation on Open for write, got %v", err)
	}

	if ok, _ := mem.Exists(ctx, "memory://ro/file.txt"); !ok {
		t.Error("Expected file to survive a rejected Remove")
	}
}
