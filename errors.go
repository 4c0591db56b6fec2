package objectstore

import (
	"errors"
	"fmt"
	"sync"
)

// Standard errors that ObjectStore implementations should use.
var (
	// Lookup errors
	ErrNotFound = errors.New("objectstore: object does not exist")

	// Contract errors
	ErrUnsupportedOperation = errors.New("objectstore: operation not supported")
	ErrConfiguration        = errors.New("objectstore: invalid configuration")

	// Input errors
	ErrInvalidPath = errors.New("objectstore: invalid path")
	ErrInvalidMode = errors.New("objectstore: invalid open mode")
)

// NotFound wraps ErrNotFound with the offending path.
func NotFound(path string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}

// TruncatedListing is returned when a native listing was cut off and pagination is not enabled.
func TruncatedListing(path string) error {
	return fmt.Errorf("%w: truncated listing for '%s' (pagination not enabled)", ErrUnsupportedOperation, path)
}

// UnsafeRemove is returned before any destructive call when a recursive removal looks accidental.
func UnsafeRemove(path string) error {
	return fmt.Errorf("%w: refusing to recursively remove '%s'", ErrUnsupportedOperation, path)
}

// NoDefaultBackend is returned by the router when no route matches and no default exists.
func NoDefaultBackend(path string) error {
	return fmt.Errorf("%w: no backend for '%s' and no default registered", ErrConfiguration, path)
}

// InvalidPath wraps ErrInvalidPath, optionally carrying the cause.
func InvalidPath(err error, path string) error {
	if err != nil {
		return fmt.Errorf("%w '%s': %v", ErrInvalidPath, path, err)
	}
	return fmt.Errorf("%w '%s'", ErrInvalidPath, path)
}

// Errors collects failures of multi-object operations.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
