// Package metrics instruments any ObjectStore with prometheus counters and
// latency histograms.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/mwantia/objectstore"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "objectstore"

// Result label values.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultUnsupported = "unsupported"
	ResultError       = "error"
)

// Collector holds the metric vectors shared by every instrumented store.
type Collector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewCollector creates the metric vectors and registers them with reg.
// If reg already holds them, the registered vectors are reused. A nil reg
// leaves the collector unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Total number of object store operations.",
		}, []string{"backend", "op", "result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Object store operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
	if reg == nil {
		return c, nil
	}

	if err := reg.Register(c.operationsTotal); err != nil {
		existing, ok := alreadyRegistered[*prometheus.CounterVec](err)
		if !ok {
			return nil, err
		}
		c.operationsTotal = existing
	}
	if err := reg.Register(c.operationDuration); err != nil {
		existing, ok := alreadyRegistered[*prometheus.HistogramVec](err)
		if !ok {
			return nil, err
		}
		c.operationDuration = existing
	}

	return c, nil
}

func alreadyRegistered[T prometheus.Collector](err error) (T, bool) {
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		existing, ok := are.ExistingCollector.(T)
		return existing, ok
	}

	var zero T
	return zero, false
}

// Instrument wraps store so every operation is recorded under the backend label name.
func Instrument(name string, store objectstore.ObjectStore, reg prometheus.Registerer) (objectstore.ObjectStore, error) {
	c, err := NewCollector(reg)
	if err != nil {
		return nil, err
	}
	return c.Instrument(name, store), nil
}

// Instrument wraps store so every operation is recorded under the backend label name.
func (c *Collector) Instrument(name string, store objectstore.ObjectStore) objectstore.ObjectStore {
	return &instrumentedStore{
		name:      name,
		store:     store,
		collector: c,
	}
}

func (c *Collector) observe(backend, op string, start time.Time, err error) {
	c.operationsTotal.WithLabelValues(backend, op, resultLabel(err)).Inc()
	c.operationDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, objectstore.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, objectstore.ErrUnsupportedOperation):
		return ResultUnsupported
	default:
		return ResultError
	}
}

type instrumentedStore struct {
	name      string
	store     objectstore.ObjectStore
	collector *Collector
}

var _ objectstore.ObjectStore = (*instrumentedStore)(nil)

func (is *instrumentedStore) Get(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	data, err := is.store.Get(ctx, path)
	is.collector.observe(is.name, "get", start, err)
	return data, err
}

func (is *instrumentedStore) Put(ctx context.Context, path string, data []byte) error {
	start := time.Now()
	err := is.store.Put(ctx, path, data)
	is.collector.observe(is.name, "put", start, err)
	return err
}

func (is *instrumentedStore) List(ctx context.Context, path string, query *objectstore.Query) ([]string, error) {
	start := time.Now()
	paths, err := is.store.List(ctx, path, query)
	is.collector.observe(is.name, "list", start, err)
	return paths, err
}

func (is *instrumentedStore) Remove(ctx context.Context, path string, recursive bool) error {
	start := time.Now()
	err := is.store.Remove(ctx, path, recursive)
	is.collector.observe(is.name, "remove", start, err)
	return err
}

func (is *instrumentedStore) Exists(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	ok, err := is.store.Exists(ctx, path)
	is.collector.observe(is.name, "exists", start, err)
	return ok, err
}

func (is *instrumentedStore) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	start := time.Now()
	existing, err := is.store.ExistsBatch(ctx, paths)
	is.collector.observe(is.name, "exists_batch", start, err)
	return existing, err
}

// Open records the time to obtain the handle, not its lifetime.
func (is *instrumentedStore) Open(ctx context.Context, path string, mode objectstore.OpenMode) (objectstore.Handle, error) {
	start := time.Now()
	handle, err := is.store.Open(ctx, path, mode)
	is.collector.observe(is.name, "open", start, err)
	return handle, err
}

func (is *instrumentedStore) PathJoin(p string, paths ...string) string {
	return is.store.PathJoin(p, paths...)
}
