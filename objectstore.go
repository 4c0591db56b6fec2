package objectstore

import (
	"context"
)

// ObjectStore is the capability set every storage backend provides.
// Paths are opaque, backend-specific keys (e.g. "s3://bucket/key" or an OS path).
type ObjectStore interface {
	// Get returns the full content stored at path.
	// Returns ErrNotFound if the path doesn't exist.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put overwrites the content stored at path unconditionally.
	Put(ctx context.Context, path string, data []byte) error

	// List returns fully-qualified child paths of path, sorted ascending.
	// A nil query lists the immediate children only. Listing a path with
	// nothing beneath it returns an empty slice, not ErrNotFound.
	List(ctx context.Context, path string, query *Query) ([]string, error)

	// Remove deletes path. If recursive is true, everything beneath path is removed as well.
	// Recursive removal of paths shorter than MinRemovePathLength fails with ErrUnsupportedOperation.
	Remove(ctx context.Context, path string, recursive bool) error

	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// ExistsBatch returns the subsequence of paths that exist, preserving input order.
	ExistsBatch(ctx context.Context, paths []string) ([]string, error)

	// Open returns a scoped handle for path. The caller must close it.
	// Write handles make their data visible no later than Close.
	Open(ctx context.Context, path string, mode OpenMode) (Handle, error)

	// PathJoin joins path segments using the backend's separator.
	PathJoin(p string, paths ...string) string
}

// Query describes a filtered listing.
type Query struct {
	// Prefix narrows the key-space beneath the listed path.
	// It is matched against the child name relative to that path.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Recursive lists every leaf object beneath the path regardless of depth,
	// instead of grouping them into one level of common prefixes.
	Recursive bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`
}

// MinRemovePathLength is the shortest path recursive removal accepts.
const MinRemovePathLength = 5

// ExistsEach is the default ExistsBatch: one Exists check per path.
func ExistsEach(ctx context.Context, store ObjectStore, paths []string) ([]string, error) {
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		ok, err := store.Exists(ctx, path)
		if err != nil {
			return nil, err
		}
		if ok {
			existing = append(existing, path)
		}
	}

	return existing, nil
}

// CheckRecursiveRemove fails if path is too short to be removed recursively.
func CheckRecursiveRemove(path string) error {
	if len(path) < MinRemovePathLength {
		return UnsafeRemove(path)
	}
	return nil
}
