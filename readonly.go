package objectstore

import (
	"context"
	"fmt"
)

// ErrReadOnly is returned by every mutating call on a read-only store.
var ErrReadOnly = fmt.Errorf("%w: store is read-only", ErrUnsupportedOperation)

// ReadOnlyStore wraps any ObjectStore to make it read-only.
// All read operations are passed through to the underlying store.
// All write operations return ErrReadOnly.
type ReadOnlyStore struct {
	store ObjectStore
}

var _ ObjectStore = (*ReadOnlyStore)(nil)

// NewReadOnly creates a new read-only wrapper around the given store.
func NewReadOnly(store ObjectStore) *ReadOnlyStore {
	return &ReadOnlyStore{
		store: store,
	}
}

func (ros *ReadOnlyStore) Get(ctx context.Context, path string) ([]byte, error) {
	return ros.store.Get(ctx, path)
}

func (ros *ReadOnlyStore) Put(ctx context.Context, path string, data []byte) error {
	return ErrReadOnly
}

func (ros *ReadOnlyStore) List(ctx context.Context, path string, query *Query) ([]string, error) {
	return ros.store.List(ctx, path, query)
}

func (ros *ReadOnlyStore) Remove(ctx context.Context, path string, recursive bool) error {
	return ErrReadOnly
}

func (ros *ReadOnlyStore) Exists(ctx context.Context, path string) (bool, error) {
	return ros.store.Exists(ctx, path)
}

func (ros *ReadOnlyStore) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	return ros.store.ExistsBatch(ctx, paths)
}

func (ros *ReadOnlyStore) Open(ctx context.Context, path string, mode OpenMode) (Handle, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if mode.IsWrite() {
		return nil, ErrReadOnly
	}
	return ros.store.Open(ctx, path, mode)
}

func (ros *ReadOnlyStore) PathJoin(p string, paths ...string) string {
	return ros.store.PathJoin(p, paths...)
}
