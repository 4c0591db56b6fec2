package memory

import (
	"sync"

	"github.com/mwantia/objectstore"
	"github.com/tidwall/btree"
)

// Scheme is the route prefix conventionally used for this backend.
const Scheme = "memory://"

// MemoryBackend is a non-durable, single-process key → bytes store intended
// for tests and fixtures. Keys are the full paths handed in by the caller.
//
// Listing is best-effort: it groups keys on "/" like a cloud delimiter
// listing but is not held to the same contract as the durable backends.
type MemoryBackend struct {
	mu sync.RWMutex

	objects *btree.Map[string, []byte]
}

var _ objectstore.ObjectStore = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: btree.NewMap[string, []byte](0),
	}
}

// Returns the identifier name defined for this backend
func (*MemoryBackend) Name() string {
	return "memory"
}

// Len returns the number of stored objects.
func (mb *MemoryBackend) Len() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return mb.objects.Len()
}

// Reset drops every stored object.
func (mb *MemoryBackend) Reset() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.objects.Clear()
}

func (mb *MemoryBackend) PathJoin(p string, paths ...string) string {
	return objectstore.JoinPath("/", p, paths...)
}
