package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mwantia/objectstore"
	"github.com/spf13/afero"
)

func (lb *LocalBackend) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(lb.fs, path)
	if err != nil {
		return nil, translate(err, path)
	}
	return data, nil
}

// Put writes data to a temporary sibling and renames it into place,
// creating missing parent directories first.
func (lb *LocalBackend) Put(ctx context.Context, path string, data []byte) error {
	if dir := parentDir(path); dir != "" {
		if err := lb.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", dir, err)
		}
	}

	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := afero.WriteFile(lb.fs, tmp, data, 0o644); err != nil {
		lb.fs.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("write %q: %w", tmp, err)
	}

	if err := lb.fs.Rename(tmp, path); err != nil {
		lb.fs.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("rename to %q: %w", path, err)
	}

	lb.log.Debug("put", "path", path, "size", len(data))
	return nil
}

func (lb *LocalBackend) List(ctx context.Context, path string, query *objectstore.Query) ([]string, error) {
	if query == nil {
		query = &objectstore.Query{}
	}

	if ok, err := afero.DirExists(lb.fs, dirOrCwd(path)); err != nil {
		return nil, translate(err, path)
	} else if !ok {
		return []string{}, nil
	}

	var names []string
	if query.Recursive {
		root := dirOrCwd(path)
		err := afero.Walk(lb.fs, root, func(walked string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(root, walked)
			if err != nil {
				return err
			}
			names = append(names, rel)
			return nil
		})
		if err != nil {
			return nil, translate(err, path)
		}
	} else {
		entries, err := afero.ReadDir(lb.fs, dirOrCwd(path))
		if err != nil {
			return nil, translate(err, path)
		}
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
	}

	files := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, query.Prefix) {
			files = append(files, lb.PathJoin(path, name))
		}
	}

	return objectstore.SortedUnique(files), nil
}

func dirOrCwd(path string) string {
	if path == "" {
		return "."
	}
	return path
}

func (lb *LocalBackend) Remove(ctx context.Context, path string, recursive bool) error {
	if recursive {
		if err := objectstore.CheckRecursiveRemove(path); err != nil {
			return err
		}

		lb.log.Debug("remove", "path", path, "recursive", true)
		return lb.fs.RemoveAll(path)
	}

	if err := lb.fs.Remove(path); err != nil {
		return translate(err, path)
	}
	return nil
}

func (lb *LocalBackend) Exists(ctx context.Context, path string) (bool, error) {
	return afero.Exists(lb.fs, path)
}

func (lb *LocalBackend) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	return objectstore.ExistsEach(ctx, lb, paths)
}

// Open wraps the native file handle. Write modes create missing parent
// directories first, the same way Put does.
func (lb *LocalBackend) Open(ctx context.Context, path string, mode objectstore.OpenMode) (objectstore.Handle, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	if mode.IsRead() {
		file, err := lb.fs.Open(path)
		if err != nil {
			return nil, translate(err, path)
		}
		return objectstore.ReadOnly(file), nil
	}

	if dir := parentDir(path); dir != "" {
		if err := lb.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %q: %w", dir, err)
		}
	}

	file, err := lb.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, translate(err, path)
	}
	return objectstore.WriteOnly(file), nil
}

// translate maps missing files onto ErrNotFound and passes everything else through.
func translate(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", objectstore.ErrNotFound, err)
	}
	return err
}
