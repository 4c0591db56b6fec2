package memory

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"

	"github.com/mwantia/objectstore"
)

func (mb *MemoryBackend) Get(ctx context.Context, path string) ([]byte, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	data, exists := mb.objects.Get(path)
	if !exists {
		return nil, objectstore.NotFound(path)
	}

	return slices.Clone(data), nil
}

func (mb *MemoryBackend) Put(ctx context.Context, path string, data []byte) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.objects.Set(path, slices.Clone(data))
	return nil
}

func (mb *MemoryBackend) List(ctx context.Context, path string, query *objectstore.Query) ([]string, error) {
	if query == nil {
		query = &objectstore.Query{}
	}

	dir := objectstore.DirPrefix(path, "/")
	keys := mb.scan(dir + query.Prefix)

	if query.Recursive {
		leaves := keys[:0]
		for _, key := range keys {
			if !strings.HasSuffix(key, "/") {
				leaves = append(leaves, key)
			}
		}
		return objectstore.SortedUnique(leaves), nil
	}

	return objectstore.GroupChildren(keys, dir, "/"), nil
}

// scan returns all keys starting with prefix in ascending order.
func (mb *MemoryBackend) scan(prefix string) []string {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	var keys []string
	mb.objects.Ascend(prefix, func(key string, _ []byte) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		keys = append(keys, key)
		return true
	})

	return keys
}

func (mb *MemoryBackend) Remove(ctx context.Context, path string, recursive bool) error {
	if !recursive {
		mb.mu.Lock()
		defer mb.mu.Unlock()

		mb.objects.Delete(path)
		return nil
	}

	if err := objectstore.CheckRecursiveRemove(path); err != nil {
		return err
	}
	if strings.Trim(strings.TrimPrefix(path, Scheme), "/") == "" {
		return objectstore.UnsafeRemove(path)
	}

	keys := mb.scan(objectstore.DirPrefix(path, "/"))

	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.objects.Delete(path)
	for _, key := range keys {
		mb.objects.Delete(key)
	}

	return nil
}

func (mb *MemoryBackend) Exists(ctx context.Context, path string) (bool, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	_, exists := mb.objects.Get(path)
	return exists, nil
}

func (mb *MemoryBackend) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	return objectstore.ExistsEach(ctx, mb, paths)
}

func (mb *MemoryBackend) Open(ctx context.Context, path string, mode objectstore.OpenMode) (objectstore.Handle, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	if mode.IsRead() {
		data, err := mb.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		return objectstore.ReadOnly(io.NopCloser(bytes.NewReader(data))), nil
	}

	return objectstore.BufferedWriter(func(data []byte) error {
		return mb.Put(ctx, path, data)
	}), nil
}
