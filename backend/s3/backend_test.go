package s3

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/minio/minio-go/v7"
	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/storetest"
)

const testBucket = "objectstore"

// newFakeS3 starts an in-process S3 server with an empty test bucket.
func newFakeS3(t *testing.T, opts ...Option) *S3Backend {
	t.Helper()

	faker := gofakes3.New(s3mem.New())
	server := httptest.NewServer(faker.Server())
	t.Cleanup(server.Close)

	endpoint, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("Invalid server url: %v", err)
	}

	sb, err := NewS3Backend(&S3BackendConfig{
		Endpoint:  endpoint.Host,
		AccessKey: "access",
		SecretKey: "secret",
		Region:    "us-east-1",
		PathStyle: true,
	}, opts...)
	if err != nil {
		t.Fatalf("Backend init failed: %v", err)
	}

	if err := sb.client.MakeBucket(t.Context(), testBucket, minio.MakeBucketOptions{}); err != nil {
		t.Fatalf("MakeBucket failed: %v", err)
	}

	return sb
}

func TestS3Backend(t *testing.T) {
	sb := newFakeS3(t)
	storetest.Run(t, sb, "s3://"+testBucket+"/tests/", "s3://"+testBucket+"/", "s3://"+testBucket, "s3:/")
}

// TestS3Backend_Truncated verifies that a listing cut off by the server fails
// unless pagination is enabled.
func TestS3Backend_Truncated(t *testing.T) {
	ctx := t.Context()
	root := "s3://" + testBucket + "/many/"

	sb := newFakeS3(t, WithMaxKeys(2))
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		if err := sb.Put(ctx, sb.PathJoin(root, name), []byte(name)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	_, err := sb.List(ctx, root, &objectstore.Query{Recursive: true})
	if !errors.Is(err, objectstore.ErrUnsupportedOperation) {
		t.Fatalf("Expected ErrUnsupportedOperation, got %v", err)
	}

	WithPagination()(sb)
	paths, err := sb.List(ctx, root, &objectstore.Query{Recursive: true})
	if err != nil {
		t.Fatalf("List with pagination failed: %v", err)
	}
	if len(paths) != 5 {
		t.Errorf("Expected 5 objects, got %q", paths)
	}
}

// TestS3Backend_ListCanceled verifies that a paginated listing stops once
// the caller's context is canceled.
func TestS3Backend_ListCanceled(t *testing.T) {
	root := "s3://" + testBucket + "/many/"

	sb := newFakeS3(t, WithMaxKeys(1), WithPagination())
	for _, name := range []string{"a", "b", "c"} {
		if err := sb.Put(t.Context(), sb.PathJoin(root, name), []byte(name)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := sb.List(ctx, root, &objectstore.Query{Recursive: true}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestS3Backend_ExistsPrefix verifies that directory-like prefixes exist.
func TestS3Backend_ExistsPrefix(t *testing.T) {
	ctx := t.Context()
	sb := newFakeS3(t)

	if err := sb.Put(ctx, "s3://"+testBucket+"/dir/sub/file.txt", []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	tests := map[string]bool{
		"s3://" + testBucket:                   true,
		"s3://" + testBucket + "/dir":          true,
		"s3://" + testBucket + "/dir/sub/":     true,
		"s3://" + testBucket + "/di":           false,
		"s3://" + testBucket + "/dir/file.txt": false,
	}

	for path, want := range tests {
		got, err := sb.Exists(ctx, path)
		if err != nil {
			t.Fatalf("Exists %q failed: %v", path, err)
		}
		if got != want {
			t.Errorf("Exists(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestS3Backend_CheckBucket(t *testing.T) {
	ctx := t.Context()
	sb := newFakeS3(t)

	if err := sb.CheckBucket(ctx, "s3://"+testBucket+"/key"); err != nil {
		t.Errorf("CheckBucket failed: %v", err)
	}
	if err := sb.CheckBucket(ctx, "s3://missing-bucket/key"); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestS3Backend_InvalidPath(t *testing.T) {
	sb := NewWithClient(nil)

	for _, path := range []string{"/tmp/file", "s3:///key", "gs://bucket/key"} {
		if _, err := sb.List(t.Context(), path, nil); !errors.Is(err, objectstore.ErrInvalidPath) {
			t.Errorf("List(%q) error = %v, want ErrInvalidPath", path, err)
		}
	}
}
