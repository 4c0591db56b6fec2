package s3

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/log"
)

const (
	// Scheme is the URI scheme handled by this backend.
	Scheme = "s3"
	// Prefix is the route prefix this backend is registered under.
	Prefix = Scheme + "://"
)

// S3Backend stores objects in S3-compatible buckets.
// Paths have the form "s3://bucket/key".
type S3Backend struct {
	client *minio.Client
	core   minio.Core
	log    *log.Logger

	maxKeys     int
	paginate    bool
	concurrency int
}

var _ objectstore.ObjectStore = (*S3Backend)(nil)

// S3BackendConfig contains the connection settings for the S3 backend.
type S3BackendConfig struct {
	// Endpoint of the S3 API (default: "s3.amazonaws.com")
	Endpoint string `yaml:"endpoint"`

	// Static credentials; when empty, AWS environment variables and the
	// shared credentials file are used instead.
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SessionToken string `yaml:"session_token"`

	// Region avoids a bucket-location lookup when set (default: "us-east-1")
	Region string `yaml:"region"`

	// Secure enables TLS
	Secure bool `yaml:"secure"`

	// PathStyle forces path-style bucket addressing
	PathStyle bool `yaml:"path_style"`
}

type Option func(*S3Backend)

func WithLogger(logger *log.Logger) Option {
	return func(sb *S3Backend) {
		if logger != nil {
			sb.log = logger.Named("s3")
		}
	}
}

// WithMaxKeys limits the number of keys requested per listing page.
func WithMaxKeys(maxKeys int) Option {
	return func(sb *S3Backend) {
		sb.maxKeys = maxKeys
	}
}

// WithPagination follows continuation tokens instead of failing on truncated listings.
func WithPagination() Option {
	return func(sb *S3Backend) {
		sb.paginate = true
	}
}

// WithConcurrency bounds the number of parallel checks issued by ExistsBatch.
func WithConcurrency(n int) Option {
	return func(sb *S3Backend) {
		if n > 0 {
			sb.concurrency = n
		}
	}
}

// NewS3Backend creates a minio client from config and wraps it.
func NewS3Backend(config *S3BackendConfig, opts ...Option) (*S3Backend, error) {
	if config == nil {
		config = &S3BackendConfig{}
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}

	region := config.Region
	if region == "" {
		region = "us-east-1"
	}

	creds := credentials.NewStaticV4(config.AccessKey, config.SecretKey, config.SessionToken)
	if config.AccessKey == "" {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
		})
	}

	lookup := minio.BucketLookupAuto
	if config.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        creds,
		Secure:       config.Secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client for %q: %w", endpoint, err)
	}

	return NewWithClient(client, opts...), nil
}

// NewWithClient wraps an existing minio client.
func NewWithClient(client *minio.Client, opts ...Option) *S3Backend {
	sb := &S3Backend{
		client:      client,
		core:        minio.Core{Client: client},
		log:         log.Discard(),
		concurrency: 16,
	}

	for _, opt := range opts {
		opt(sb)
	}

	return sb
}

// Returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return "s3"
}

// CheckBucket verifies that the bucket addressed by path is reachable.
func (sb *S3Backend) CheckBucket(ctx context.Context, path string) error {
	bucket, _, err := objectstore.SplitURI(Scheme, path)
	if err != nil {
		return err
	}

	exists, err := sb.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("accessing bucket %q: %w", bucket, err)
	}
	if !exists {
		return objectstore.NotFound(Prefix + bucket)
	}

	return nil
}

func (sb *S3Backend) PathJoin(p string, paths ...string) string {
	return objectstore.JoinPath("/", p, paths...)
}

// uri re-attaches scheme and bucket to a key.
func uri(bucket, key string) string {
	return Prefix + bucket + "/" + key
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
