package sql

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mwantia/objectstore"
)

const (
	selectData = `SELECT data FROM objectstore_objects WHERE bucket = ? AND key = ?`

	upsertData = `INSERT INTO objectstore_objects (bucket, key, data, modified) VALUES (?, ?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET data = excluded.data, modified = excluded.modified`

	selectKeys = `SELECT key FROM objectstore_objects
		WHERE bucket = ? AND substr(key, 1, ?) = ? ORDER BY key`

	selectExists = `SELECT 1 FROM objectstore_objects
		WHERE bucket = ? AND (key = ? OR substr(key, 1, ?) = ?) LIMIT 1`

	deleteKey = `DELETE FROM objectstore_objects WHERE bucket = ? AND key = ?`

	deleteTree = `DELETE FROM objectstore_objects
		WHERE bucket = ? AND (key = ? OR substr(key, 1, ?) = ?)`
)

// prefixArgs returns the arguments matching keys that start with prefix.
// substr counts characters in both dialects.
func prefixArgs(prefix string) []any {
	return []any{utf8.RuneCountInString(prefix), prefix}
}

func (sb *SQLBackend) Get(ctx context.Context, path string) ([]byte, error) {
	bucket, key, err := sb.split(path)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = sb.db.QueryRowContext(ctx, sb.rebind(selectData), bucket, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, objectstore.NotFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}

	return data, nil
}

func (sb *SQLBackend) Put(ctx context.Context, path string, data []byte) error {
	bucket, key, err := sb.split(path)
	if err != nil {
		return err
	}
	if key == "" {
		return objectstore.InvalidPath(nil, path)
	}

	if data == nil {
		data = []byte{}
	}

	if _, err := sb.db.ExecContext(ctx, sb.rebind(upsertData), bucket, key, data, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}

	sb.log.Debug("put", "path", path, "size", len(data))
	return nil
}

func (sb *SQLBackend) List(ctx context.Context, path string, query *objectstore.Query) ([]string, error) {
	if query == nil {
		query = &objectstore.Query{}
	}

	bucket, key, err := sb.split(path)
	if err != nil {
		return nil, err
	}

	dir := objectstore.DirPrefix(key, "/")
	args := append([]any{bucket}, prefixArgs(dir+query.Prefix)...)

	rows, err := sb.db.QueryContext(ctx, sb.rebind(selectKeys), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list '%s': %w", path, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		if k == dir || strings.HasSuffix(k, "/") {
			continue
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !query.Recursive {
		keys = objectstore.GroupChildren(keys, dir, "/")
	}

	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		paths = append(paths, sb.uri(bucket, k))
	}

	return objectstore.SortedUnique(paths), nil
}

func (sb *SQLBackend) Remove(ctx context.Context, path string, recursive bool) error {
	if recursive {
		if err := objectstore.CheckRecursiveRemove(path); err != nil {
			return err
		}
	}

	bucket, key, err := sb.split(path)
	if err != nil {
		return err
	}

	if !recursive {
		if _, err := sb.db.ExecContext(ctx, sb.rebind(deleteKey), bucket, key); err != nil {
			return fmt.Errorf("failed to remove '%s': %w", path, err)
		}
		return nil
	}

	if key == "" {
		return objectstore.UnsafeRemove(path)
	}

	key = objectstore.TrimSeparator(key, "/")
	args := append([]any{bucket, key}, prefixArgs(key+"/")...)

	result, err := sb.db.ExecContext(ctx, sb.rebind(deleteTree), args...)
	if err != nil {
		return fmt.Errorf("failed to remove '%s': %w", path, err)
	}

	if n, err := result.RowsAffected(); err == nil {
		sb.log.Debug("remove", "path", path, "recursive", true, "rows", n)
	}
	return nil
}

// Exists reports true for stored keys and for prefixes with keys beneath them.
func (sb *SQLBackend) Exists(ctx context.Context, path string) (bool, error) {
	bucket, key, err := sb.split(path)
	if err != nil {
		return false, err
	}

	dir := objectstore.DirPrefix(key, "/")
	args := append([]any{bucket, key}, prefixArgs(dir)...)

	var one int
	err = sb.db.QueryRowContext(ctx, sb.rebind(selectExists), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat '%s': %w", path, err)
	}

	return true, nil
}

func (sb *SQLBackend) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	return objectstore.ExistsEach(ctx, sb, paths)
}

func (sb *SQLBackend) Open(ctx context.Context, path string, mode objectstore.OpenMode) (objectstore.Handle, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	if mode.IsWrite() {
		if _, _, err := sb.split(path); err != nil {
			return nil, err
		}
		return objectstore.BufferedWriter(func(data []byte) error {
			return sb.Put(ctx, path, data)
		}), nil
	}

	data, err := sb.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	return objectstore.ReadOnly(io.NopCloser(bytes.NewReader(data))), nil
}
