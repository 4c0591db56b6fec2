package consul

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/objectstore"
)

func (cb *ConsulBackend) Get(ctx context.Context, path string) ([]byte, error) {
	key, err := cb.buildKey(path)
	if err != nil {
		return nil, err
	}

	pair, _, err := cb.kv.Get(key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("reading consul key %q: %w", key, err)
	}
	if pair == nil {
		return nil, objectstore.NotFound(path)
	}

	return pair.Value, nil
}

func (cb *ConsulBackend) Put(ctx context.Context, path string, data []byte) error {
	key, err := cb.buildKey(path)
	if err != nil {
		return err
	}

	pair := &api.KVPair{
		Key:   key,
		Value: data,
	}
	if _, err := cb.kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("writing consul key %q: %w", key, err)
	}

	cb.log.Debug("put", "path", path, "size", len(data))
	return nil
}

// List maps directly onto KV.Keys, which groups on the separator the same
// way a cloud delimiter listing does.
func (cb *ConsulBackend) List(ctx context.Context, path string, query *objectstore.Query) ([]string, error) {
	if query == nil {
		query = &objectstore.Query{}
	}

	key, err := cb.buildKey(path)
	if err != nil {
		return nil, err
	}

	dir := objectstore.DirPrefix(key, "/")
	separator := "/"
	if query.Recursive {
		separator = ""
	}

	keys, _, err := cb.kv.Keys(dir+query.Prefix, separator, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing consul keys under %q: %w", dir, err)
	}

	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == dir {
			continue
		}
		if query.Recursive && strings.HasSuffix(k, "/") {
			continue
		}
		paths = append(paths, cb.buildPath(objectstore.TrimSeparator(k, "/")))
	}

	return objectstore.SortedUnique(paths), nil
}

func (cb *ConsulBackend) Remove(ctx context.Context, path string, recursive bool) error {
	if recursive {
		if err := objectstore.CheckRecursiveRemove(path); err != nil {
			return err
		}
	}

	key, err := cb.buildKey(path)
	if err != nil {
		return err
	}

	opts := (&api.WriteOptions{}).WithContext(ctx)
	if !recursive {
		if _, err := cb.kv.Delete(key, opts); err != nil {
			return fmt.Errorf("deleting consul key %q: %w", key, err)
		}
		return nil
	}

	if strings.Trim(strings.TrimPrefix(path, Prefix), "/") == "" {
		return objectstore.UnsafeRemove(path)
	}

	errs := objectstore.Errors{}
	if _, err := cb.kv.DeleteTree(objectstore.DirPrefix(key, "/"), opts); err != nil {
		errs.Add(fmt.Errorf("deleting consul tree %q: %w", key, err))
	}
	if _, err := cb.kv.Delete(objectstore.TrimSeparator(key, "/"), opts); err != nil {
		errs.Add(fmt.Errorf("deleting consul key %q: %w", key, err))
	}

	cb.log.Debug("remove", "path", path, "recursive", true)
	return errs.Errors()
}

// Exists reports true for stored keys and for prefixes with keys beneath them.
func (cb *ConsulBackend) Exists(ctx context.Context, path string) (bool, error) {
	key, err := cb.buildKey(path)
	if err != nil {
		return false, err
	}

	opts := (&api.QueryOptions{}).WithContext(ctx)
	pair, _, err := cb.kv.Get(key, opts)
	if err != nil {
		return false, fmt.Errorf("reading consul key %q: %w", key, err)
	}
	if pair != nil {
		return true, nil
	}

	keys, _, err := cb.kv.Keys(objectstore.DirPrefix(key, "/"), "/", opts)
	if err != nil {
		return false, fmt.Errorf("listing consul keys under %q: %w", key, err)
	}

	return len(keys) > 0, nil
}

func (cb *ConsulBackend) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	return objectstore.ExistsEach(ctx, cb, paths)
}

func (cb *ConsulBackend) Open(ctx context.Context, path string, mode objectstore.OpenMode) (objectstore.Handle, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	if mode.IsWrite() {
		if _, err := cb.buildKey(path); err != nil {
			return nil, err
		}
		return objectstore.BufferedWriter(func(data []byte) error {
			return cb.Put(ctx, path, data)
		}), nil
	}

	data, err := cb.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	return objectstore.ReadOnly(io.NopCloser(bytes.NewReader(data))), nil
}
