package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/objectstore"
	"golang.org/x/sync/errgroup"
)

func (sb *S3Backend) Get(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := objectstore.WithHandle(ctx, sb, path, objectstore.ModeReadBinary, func(h objectstore.Handle) error {
		var err error
		data, err = io.ReadAll(h)
		return err
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (sb *S3Backend) Put(ctx context.Context, path string, data []byte) error {
	bucket, key, err := objectstore.SplitURI(Scheme, path)
	if err != nil {
		return err
	}

	if _, err := sb.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("writing s3 object %q: %w", path, err)
	}

	sb.log.Debug("put", "path", path, "size", len(data))
	return nil
}

// List translates the query into a native prefix/delimiter listing.
// Common prefixes and directory markers lose their trailing slash so they
// look like object keys, and every result gets scheme and bucket re-attached.
func (sb *S3Backend) List(ctx context.Context, path string, query *objectstore.Query) ([]string, error) {
	if query == nil {
		query = &objectstore.Query{}
	}

	bucket, key, err := objectstore.SplitURI(Scheme, path)
	if err != nil {
		return nil, err
	}

	dir := objectstore.DirPrefix(key, "/")
	delimiter := "/"
	if query.Recursive {
		delimiter = ""
	}

	keys, err := sb.listKeys(ctx, bucket, dir+query.Prefix, delimiter)
	if err != nil {
		if errors.Is(err, errTruncated) {
			return nil, objectstore.TruncatedListing(path)
		}
		return nil, fmt.Errorf("listing s3 objects under %q: %w", path, err)
	}

	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == dir {
			continue
		}
		if query.Recursive && strings.HasSuffix(k, "/") {
			continue
		}
		paths = append(paths, uri(bucket, objectstore.TrimSeparator(k, "/")))
	}

	return objectstore.SortedUnique(paths), nil
}

var errTruncated = errors.New("listing truncated")

// listKeys pages through ListObjectsV2. The minio core call takes no
// context, so ctx is checked before every page.
func (sb *S3Backend) listKeys(ctx context.Context, bucket, prefix, delimiter string) ([]string, error) {
	var keys []string
	token := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := sb.core.ListObjectsV2(bucket, prefix, "", token, delimiter, sb.maxKeys)
		if err != nil {
			return nil, err
		}

		for _, object := range result.Contents {
			keys = append(keys, object.Key)
		}
		for _, common := range result.CommonPrefixes {
			keys = append(keys, common.Prefix)
		}

		if !result.IsTruncated {
			return keys, nil
		}
		if !sb.paginate || result.NextContinuationToken == "" {
			return nil, errTruncated
		}
		token = result.NextContinuationToken
	}
}

func (sb *S3Backend) Remove(ctx context.Context, path string, recursive bool) error {
	if recursive {
		if err := objectstore.CheckRecursiveRemove(path); err != nil {
			return err
		}
	}

	bucket, key, err := objectstore.SplitURI(Scheme, path)
	if err != nil {
		return err
	}

	if !recursive {
		if err := sb.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("deleting s3 object %q: %w", path, err)
		}
		return nil
	}

	if objectstore.TrimSeparator(key, "/") == "" {
		return objectstore.UnsafeRemove(path)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listErr error
	objects := make(chan minio.ObjectInfo)
	go func() {
		defer close(objects)

		send := func(object minio.ObjectInfo) bool {
			select {
			case objects <- object:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(minio.ObjectInfo{Key: objectstore.TrimSeparator(key, "/")}) {
			return
		}
		for object := range sb.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
			Prefix:    objectstore.DirPrefix(key, "/"),
			Recursive: true,
		}) {
			if object.Err != nil {
				listErr = object.Err
				return
			}
			if !send(object) {
				return
			}
		}
	}()

	errs := objectstore.Errors{}
	for result := range sb.client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		errs.Add(fmt.Errorf("deleting s3 object %q: %w", uri(bucket, result.ObjectName), result.Err))
	}
	if listErr != nil {
		errs.Add(fmt.Errorf("listing s3 objects under %q: %w", path, listErr))
	}

	sb.log.Debug("remove", "path", path, "recursive", true, "failed", errs.Len())
	return errs.Errors()
}

// Exists reports true for objects and for directory-like prefixes with at
// least one object beneath them.
func (sb *S3Backend) Exists(ctx context.Context, path string) (bool, error) {
	bucket, key, err := objectstore.SplitURI(Scheme, path)
	if err != nil {
		return false, err
	}

	if key == "" {
		return sb.client.BucketExists(ctx, bucket)
	}

	_, err = sb.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if !isNotFound(err) {
		return false, err
	}

	result, err := sb.core.ListObjectsV2(bucket, objectstore.DirPrefix(key, "/"), "", "", "/", 1)
	if err != nil {
		return false, err
	}

	return len(result.Contents) > 0 || len(result.CommonPrefixes) > 0, nil
}

// ExistsBatch runs the existence checks concurrently and returns the
// existing paths in input order.
func (sb *S3Backend) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	found := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sb.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			ok, err := sb.Exists(gctx, path)
			if err != nil {
				return err
			}
			found[i] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	existing := make([]string, 0, len(paths))
	for i, path := range paths {
		if found[i] {
			existing = append(existing, path)
		}
	}
	return existing, nil
}

// Open returns a streaming reader for read modes. Write modes buffer the
// content and upload it on Close.
func (sb *S3Backend) Open(ctx context.Context, path string, mode objectstore.OpenMode) (objectstore.Handle, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	bucket, key, err := objectstore.SplitURI(Scheme, path)
	if err != nil {
		return nil, err
	}

	if mode.IsWrite() {
		return objectstore.BufferedWriter(func(data []byte) error {
			return sb.Put(ctx, path, data)
		}), nil
	}

	if _, err := sb.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, objectstore.NotFound(path)
		}
		return nil, fmt.Errorf("reading s3 object %q: %w", path, err)
	}

	object, err := sb.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("reading s3 object %q: %w", path, err)
	}

	return objectstore.ReadOnly(object), nil
}
