// Package store provides the process-wide object store.
//
// Default builds a Router once, on first use, from the file named by
// OBJECTSTORE_CONFIG (or the built-in defaults: "s3://" paths go to S3,
// everything else to the local filesystem). The router is never modified
// afterwards; callers that need different routing build their own with New.
package store

import (
	"context"
	"os"
	"sync"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/config"
)

// ConfigEnv names the environment variable holding the config file path.
const ConfigEnv = "OBJECTSTORE_CONFIG"

var (
	defaultOnce   sync.Once
	defaultRouter *objectstore.Router
	defaultErr    error
)

// Default returns the shared router, building it on the first call.
// A failed build is returned on every call.
func Default() (*objectstore.Router, error) {
	defaultOnce.Do(func() {
		cfg, err := config.Load(os.Getenv(ConfigEnv))
		if err != nil {
			defaultErr = err
			return
		}
		defaultRouter, defaultErr = New(context.Background(), cfg)
	})
	return defaultRouter, defaultErr
}

// New builds an independent router from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...config.BuildOption) (*objectstore.Router, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg.Build(ctx, opts...)
}

// The functions below forward to the Default router.

func Get(ctx context.Context, path string) ([]byte, error) {
	router, err := Default()
	if err != nil {
		return nil, err
	}
	return router.Get(ctx, path)
}

func Put(ctx context.Context, path string, data []byte) error {
	router, err := Default()
	if err != nil {
		return err
	}
	return router.Put(ctx, path, data)
}

func List(ctx context.Context, path string, query *objectstore.Query) ([]string, error) {
	router, err := Default()
	if err != nil {
		return nil, err
	}
	return router.List(ctx, path, query)
}

func Remove(ctx context.Context, path string, recursive bool) error {
	router, err := Default()
	if err != nil {
		return err
	}
	return router.Remove(ctx, path, recursive)
}

func Exists(ctx context.Context, path string) (bool, error) {
	router, err := Default()
	if err != nil {
		return false, err
	}
	return router.Exists(ctx, path)
}

func ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	router, err := Default()
	if err != nil {
		return nil, err
	}
	return router.ExistsBatch(ctx, paths)
}

func Open(ctx context.Context, path string, mode objectstore.OpenMode) (objectstore.Handle, error) {
	router, err := Default()
	if err != nil {
		return nil, err
	}
	return router.Open(ctx, path, mode)
}

func PathJoin(p string, paths ...string) string {
	router, err := Default()
	if err != nil {
		return objectstore.JoinPath("/", p, paths...)
	}
	return router.PathJoin(p, paths...)
}
