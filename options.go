package objectstore

import "github.com/mwantia/objectstore/log"

type RouterOptions struct {
	Logger *log.Logger
}

type RouterOption func(*RouterOptions)

func newDefaultRouterOptions() *RouterOptions {
	return &RouterOptions{
		Logger: log.Discard(),
	}
}

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(logger *log.Logger) RouterOption {
	return func(opts *RouterOptions) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}
