package config

import (
	"context"
	"fmt"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/backend/consul"
	"github.com/mwantia/objectstore/backend/local"
	"github.com/mwantia/objectstore/backend/memory"
	"github.com/mwantia/objectstore/backend/s3"
	sqlbackend "github.com/mwantia/objectstore/backend/sql"
	"github.com/mwantia/objectstore/log"
	"github.com/mwantia/objectstore/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type BuildOptions struct {
	Logger     *log.Logger
	Registerer prometheus.Registerer
}

type BuildOption func(*BuildOptions)

// WithLogger overrides the logger created from the log section.
func WithLogger(logger *log.Logger) BuildOption {
	return func(o *BuildOptions) {
		o.Logger = logger
	}
}

// WithRegisterer sets where metrics are registered when enabled.
// Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) BuildOption {
	return func(o *BuildOptions) {
		o.Registerer = reg
	}
}

// Build validates the config and creates a router with one backend per route,
// registered in configuration order.
func (c *Config) Build(ctx context.Context, opts ...BuildOption) (*objectstore.Router, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	options := &BuildOptions{
		Registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		logger, err := c.NewLogger("objectstore")
		if err != nil {
			return nil, err
		}
		options.Logger = logger
	}

	var collector *metrics.Collector
	if c.Metrics.Enabled {
		var err error
		if collector, err = metrics.NewCollector(options.Registerer); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	router := objectstore.NewRouter(objectstore.WithLogger(options.Logger))
	for i, route := range c.Routes {
		store, err := newBackend(ctx, route, options.Logger)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", i, err)
		}
		if route.ReadOnly {
			store = objectstore.NewReadOnly(store)
		}
		if collector != nil {
			store = collector.Instrument(route.Type, store)
		}

		options.Logger.Debug("route", "prefix", route.Prefix, "type", route.Type)
		router.Add(route.Prefix, store)
	}

	return router, nil
}

func newBackend(ctx context.Context, route RouteConfig, logger *log.Logger) (objectstore.ObjectStore, error) {
	switch route.Type {
	case TypeS3:
		return s3.NewS3Backend(route.S3, s3.WithLogger(logger))
	case TypeLocal:
		return local.NewLocalBackend(local.WithLogger(logger)), nil
	case TypeMemory:
		return memory.NewMemoryBackend(), nil
	case TypeConsul:
		return consul.NewConsulBackend(route.Consul, consul.WithLogger(logger))
	case TypeSQL:
		return sqlbackend.NewSQLBackend(ctx, route.SQL, sqlbackend.WithLogger(logger))
	}

	return nil, fmt.Errorf("%w: unknown type '%s'", objectstore.ErrConfiguration, route.Type)
}
