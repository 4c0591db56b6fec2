package local

import (
	"path/filepath"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/log"
	"github.com/spf13/afero"
)

// LocalBackend stores objects as plain files. Paths are OS-native paths,
// absolute or relative to the working directory.
type LocalBackend struct {
	fs  afero.Fs
	log *log.Logger
}

var _ objectstore.ObjectStore = (*LocalBackend)(nil)

type Option func(*LocalBackend)

func WithLogger(logger *log.Logger) Option {
	return func(lb *LocalBackend) {
		if logger != nil {
			lb.log = logger.Named("local")
		}
	}
}

// NewLocalBackend creates a backend on top of the operating system filesystem.
func NewLocalBackend(opts ...Option) *LocalBackend {
	return NewWithFs(afero.NewOsFs(), opts...)
}

// NewWithFs creates a backend on top of a custom afero.Fs.
// This is useful for testing with afero.MemMapFs.
func NewWithFs(fs afero.Fs, opts ...Option) *LocalBackend {
	lb := &LocalBackend{
		fs:  fs,
		log: log.Discard(),
	}

	for _, opt := range opts {
		opt(lb)
	}

	return lb
}

// Returns the identifier name defined for this backend
func (*LocalBackend) Name() string {
	return "local"
}

func (lb *LocalBackend) PathJoin(p string, paths ...string) string {
	return objectstore.JoinPath(string(filepath.Separator), p, paths...)
}

// parentDir returns the directory that must exist before path can be written,
// or "" if there is nothing to create.
func parentDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}
