package objectstore

import (
	"context"
	"strings"
	"sync"

	"github.com/mwantia/objectstore/log"
)

// Router dispatches every operation to the backend registered for the
// path's prefix. Routes are tested in registration order, first match wins;
// unmatched paths go to the default backend.
type Router struct {
	mu     sync.RWMutex
	log    *log.Logger
	routes []*Route
	fall   ObjectStore
}

// Route is a single (prefix, backend) registration.
type Route struct {
	Prefix string
	Store  ObjectStore
}

var _ ObjectStore = (*Router)(nil)

func NewRouter(opts ...RouterOption) *Router {
	options := newDefaultRouterOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Router{
		log: options.Logger.Named("router"),
	}
}

// Add registers store for paths starting with prefix. An empty prefix sets
// the default backend. Registering an existing prefix replaces its backend
// without changing its position.
func (r *Router) Add(prefix string, store ObjectStore) *Router {
	if prefix == "" {
		return r.AddDefault(store)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, route := range r.routes {
		if route.Prefix == prefix {
			r.log.Warn("replacing route", "prefix", prefix)
			route.Store = store
			return r
		}
	}

	r.routes = append(r.routes, &Route{
		Prefix: prefix,
		Store:  store,
	})
	return r
}

// AddDefault registers the backend used when no prefix matches.
func (r *Router) AddDefault(store ObjectStore) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fall != nil {
		r.log.Warn("replacing default route")
	}
	r.fall = store
	return r
}

// Routes returns the registered prefix routes in match order.
// The default backend is not included.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		routes = append(routes, *route)
	}
	return routes
}

// Dispatch returns the backend responsible for path.
// Returns ErrConfiguration if nothing matches and no default is registered.
func (r *Router) Dispatch(path string) (ObjectStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if strings.HasPrefix(path, route.Prefix) {
			r.log.Debug("dispatch", "path", path, "prefix", route.Prefix)
			return route.Store, nil
		}
	}

	if r.fall == nil {
		return nil, NoDefaultBackend(path)
	}

	r.log.Debug("dispatch", "path", path, "prefix", "<default>")
	return r.fall, nil
}

func (r *Router) Get(ctx context.Context, path string) ([]byte, error) {
	store, err := r.Dispatch(path)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, path)
}

func (r *Router) Put(ctx context.Context, path string, data []byte) error {
	store, err := r.Dispatch(path)
	if err != nil {
		return err
	}
	return store.Put(ctx, path, data)
}

func (r *Router) List(ctx context.Context, path string, query *Query) ([]string, error) {
	store, err := r.Dispatch(path)
	if err != nil {
		return nil, err
	}
	return store.List(ctx, path, query)
}

func (r *Router) Remove(ctx context.Context, path string, recursive bool) error {
	store, err := r.Dispatch(path)
	if err != nil {
		return err
	}
	return store.Remove(ctx, path, recursive)
}

func (r *Router) Exists(ctx context.Context, path string) (bool, error) {
	store, err := r.Dispatch(path)
	if err != nil {
		return false, err
	}
	return store.Exists(ctx, path)
}

// ExistsBatch hands each backend its share of paths in one call, so native
// batch implementations are used, and returns the result in input order.
func (r *Router) ExistsBatch(ctx context.Context, paths []string) ([]string, error) {
	var stores []ObjectStore
	groups := make(map[ObjectStore][]string)

	for _, path := range paths {
		store, err := r.Dispatch(path)
		if err != nil {
			return nil, err
		}
		if _, seen := groups[store]; !seen {
			stores = append(stores, store)
		}
		groups[store] = append(groups[store], path)
	}

	found := make(map[string]bool, len(paths))
	for _, store := range stores {
		existing, err := store.ExistsBatch(ctx, groups[store])
		if err != nil {
			return nil, err
		}
		for _, path := range existing {
			found[path] = true
		}
	}

	existing := make([]string, 0, len(found))
	for _, path := range paths {
		if found[path] {
			existing = append(existing, path)
		}
	}
	return existing, nil
}

func (r *Router) Open(ctx context.Context, path string, mode OpenMode) (Handle, error) {
	store, err := r.Dispatch(path)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, path, mode)
}

func (r *Router) PathJoin(p string, paths ...string) string {
	store, err := r.Dispatch(p)
	if err != nil {
		// No backend means no separator rules; fall back to slashes.
		return JoinPath("/", p, paths...)
	}
	return store.PathJoin(p, paths...)
}
