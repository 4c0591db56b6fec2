// Package storetest provides a conformance suite every ObjectStore must pass.
//
//	func TestLocalBackend(t *testing.T) {
//	    storetest.Run(t, local.NewLocalBackend(), t.TempDir()+"/objects/")
//	}
package storetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/mwantia/objectstore"
)

// Run executes every conformance test against store beneath root. Each test
// starts from an empty root. unsafe lists paths the backend must refuse to
// remove recursively.
func Run(t *testing.T, store objectstore.ObjectStore, root string, unsafe ...string) { //nolint:gocyclo
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string)
	}{
		{"PutGet", testPutGet},
		{"OpenRead", testOpenRead},
		{"OpenWrite", testOpenWrite},
		{"List", testList},
		{"ListQuery", testListQuery},
		{"ListMissing", testListMissing},
		{"Exists", testExists},
		{"ExistsBatch", testExistsBatch},
		{"Remove", testRemove},
		{"RemoveRecursive", testRemoveRecursive},
		{"GetMissing", testGetMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			reset(t, ctx, store, root)
			t.Cleanup(func() {
				reset(t, context.Background(), store, root)
			})

			tt.fn(t, ctx, store, root)
		})
	}

	if len(unsafe) > 0 {
		t.Run("RemoveGuard", func(t *testing.T) {
			ctx := t.Context()
			reset(t, ctx, store, root)
			t.Cleanup(func() {
				reset(t, context.Background(), store, root)
			})

			testRemoveGuard(t, ctx, store, root, unsafe)
		})
	}
}

func reset(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	t.Helper()

	if err := store.Remove(ctx, root, true); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("Reset of %q failed: %v", root, err)
	}
}

func makePaths(store objectstore.ObjectStore, root string) []string {
	return []string{
		store.PathJoin(root, "my_file.txt"),
		store.PathJoin(root, "folder1/my_file.txt"),
		store.PathJoin(root, "folder2/__weee"),
		store.PathJoin(root, "folder1/folder2/something.gz"),
	}
}

func makePayload() []byte {
	return fmt.Appendf(nil, "payload_%d", rand.IntN(100000))
}

func mustPut(t *testing.T, ctx context.Context, store objectstore.ObjectStore, path string, data []byte) {
	t.Helper()

	if err := store.Put(ctx, path, data); err != nil {
		t.Fatalf("Put %q failed: %v", path, err)
	}
}

func mustExist(t *testing.T, ctx context.Context, store objectstore.ObjectStore, path string, want bool) {
	t.Helper()

	got, err := store.Exists(ctx, path)
	if err != nil {
		t.Fatalf("Exists %q failed: %v", path, err)
	}
	if got != want {
		t.Errorf("Exists(%q) = %v, want %v", path, got, want)
	}
}

func testPutGet(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	for _, path := range makePaths(store, root) {
		data := makePayload()
		mustPut(t, ctx, store, path, data)

		got, err := store.Get(ctx, path)
		if err != nil {
			t.Fatalf("Get %q failed: %v", path, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Get(%q) = %q, want %q", path, got, data)
		}
	}
}

func testOpenRead(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	for _, path := range makePaths(store, root) {
		data := makePayload()
		mustPut(t, ctx, store, path, data)

		var got []byte
		err := objectstore.WithHandle(ctx, store, path, objectstore.ModeRead, func(h objectstore.Handle) error {
			var err error
			got, err = io.ReadAll(h)
			return err
		})
		if err != nil {
			t.Fatalf("Open %q for read failed: %v", path, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Read(%q) = %q, want %q", path, got, data)
		}
	}
}

func testOpenWrite(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	for _, path := range makePaths(store, root) {
		data := makePayload()

		err := objectstore.WithHandle(ctx, store, path, objectstore.ModeWrite, func(h objectstore.Handle) error {
			_, err := h.Write(data)
			return err
		})
		if err != nil {
			t.Fatalf("Open %q for write failed: %v", path, err)
		}

		got, err := store.Get(ctx, path)
		if err != nil {
			t.Fatalf("Get %q after write failed: %v", path, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Get(%q) = %q, want %q", path, got, data)
		}
	}
}

func putTree(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	t.Helper()

	for _, folder := range []string{"", "folder/", "folder/subfolder/"} {
		for _, name := range []string{"_lala", "wee.txt"} {
			mustPut(t, ctx, store, store.PathJoin(root, folder, name), makePayload())
		}
	}
}

func expectList(t *testing.T, got []string, err error, want []string) {
	t.Helper()

	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("List = %q, want %q", got, want)
	}
}

func testList(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	putTree(t, ctx, store, root)

	got, err := store.List(ctx, store.PathJoin(root, ""), nil)
	expectList(t, got, err, []string{
		store.PathJoin(root, "_lala"),
		store.PathJoin(root, "folder"),
		store.PathJoin(root, "wee.txt"),
	})

	got, err = store.List(ctx, store.PathJoin(root, "folder/"), nil)
	expectList(t, got, err, []string{
		store.PathJoin(root, "folder/", "_lala"),
		store.PathJoin(root, "folder/", "subfolder"),
		store.PathJoin(root, "folder/", "wee.txt"),
	})
}

func testListQuery(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	putTree(t, ctx, store, root)

	got, err := store.List(ctx, root, &objectstore.Query{Recursive: true})
	expectList(t, got, err, []string{
		store.PathJoin(root, "_lala"),
		store.PathJoin(root, "wee.txt"),
		store.PathJoin(root, "folder/", "_lala"),
		store.PathJoin(root, "folder/", "wee.txt"),
		store.PathJoin(root, "folder/", "subfolder/", "_lala"),
		store.PathJoin(root, "folder/", "subfolder/", "wee.txt"),
	})

	got, err = store.List(ctx, root, &objectstore.Query{Prefix: "we", Recursive: true})
	expectList(t, got, err, []string{
		store.PathJoin(root, "wee.txt"),
	})

	got, err = store.List(ctx, root, &objectstore.Query{Prefix: "fo"})
	expectList(t, got, err, []string{
		store.PathJoin(root, "folder"),
	})

	got, err = store.List(ctx, store.PathJoin(root, "folder/"), &objectstore.Query{Prefix: "_"})
	expectList(t, got, err, []string{
		store.PathJoin(root, "folder/", "_lala"),
	})
}

func testListMissing(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	missing := store.PathJoin(root, "missing/")

	for _, query := range []*objectstore.Query{nil, {Recursive: true}} {
		got, err := store.List(ctx, missing, query)
		if err != nil {
			t.Fatalf("List(%q, %+v) failed: %v", missing, query, err)
		}
		if len(got) != 0 {
			t.Errorf("List(%q, %+v) = %q, want empty", missing, query, got)
		}
	}
}

func testExists(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	path := store.PathJoin(root, "f1.txt")

	mustExist(t, ctx, store, path, false)
	mustPut(t, ctx, store, path, makePayload())
	mustExist(t, ctx, store, path, true)
	mustExist(t, ctx, store, path, true)
}

func testExistsBatch(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	paths := []string{
		store.PathJoin(root, "f1.txt"),
		store.PathJoin(root, "f2.txt"),
	}

	check := func(want []string) {
		t.Helper()

		got, err := store.ExistsBatch(ctx, paths)
		if err != nil {
			t.Fatalf("ExistsBatch failed: %v", err)
		}
		if !slices.Equal(got, want) {
			t.Errorf("ExistsBatch = %q, want %q", got, want)
		}
	}

	check([]string{})
	mustPut(t, ctx, store, paths[0], makePayload())
	check([]string{paths[0]})
	mustPut(t, ctx, store, paths[1], makePayload())
	check(paths)
}

func testRemove(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	p1 := store.PathJoin(root, "f1.txt")
	p2 := store.PathJoin(root, "f2.txt")
	data := makePayload()

	mustPut(t, ctx, store, p1, data)
	mustPut(t, ctx, store, p2, data)
	mustExist(t, ctx, store, p1, true)
	mustExist(t, ctx, store, p2, true)

	if err := store.Remove(ctx, p1, false); err != nil {
		t.Fatalf("Remove %q failed: %v", p1, err)
	}
	mustExist(t, ctx, store, p1, false)
	mustExist(t, ctx, store, p2, true)

	if err := store.Remove(ctx, p2, false); err != nil {
		t.Fatalf("Remove %q failed: %v", p2, err)
	}
	mustExist(t, ctx, store, p2, false)
}

func testRemoveRecursive(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	putTree(t, ctx, store, root)

	folder := store.PathJoin(root, "folder")
	if err := store.Remove(ctx, folder, true); err != nil {
		t.Fatalf("Remove %q recursively failed: %v", folder, err)
	}

	mustExist(t, ctx, store, store.PathJoin(root, "folder/", "_lala"), false)
	mustExist(t, ctx, store, store.PathJoin(root, "folder/", "subfolder/", "wee.txt"), false)
	mustExist(t, ctx, store, store.PathJoin(root, "_lala"), true)
	mustExist(t, ctx, store, store.PathJoin(root, "wee.txt"), true)
}

func testGetMissing(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string) {
	path := store.PathJoin(root, "missing.txt")

	if _, err := store.Get(ctx, path); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Get(%q) error = %v, want ErrNotFound", path, err)
	}
	if _, err := store.Open(ctx, path, objectstore.ModeRead); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Open(%q) error = %v, want ErrNotFound", path, err)
	}
}

func testRemoveGuard(t *testing.T, ctx context.Context, store objectstore.ObjectStore, root string, unsafe []string) {
	path := store.PathJoin(root, "keep.txt")
	mustPut(t, ctx, store, path, makePayload())

	for _, short := range unsafe {
		if err := store.Remove(ctx, short, true); !errors.Is(err, objectstore.ErrUnsupportedOperation) {
			t.Errorf("Remove(%q, recursive) error = %v, want ErrUnsupportedOperation", short, err)
		}
	}

	mustExist(t, ctx, store, path, true)
}
