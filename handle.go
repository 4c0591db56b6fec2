package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// Handle is a scoped byte stream returned by Open.
type Handle interface {
	io.ReadWriteCloser
}

// ReadOnly adapts a reader to a Handle that rejects writes.
func ReadOnly(rc io.ReadCloser) Handle {
	return &readHandle{ReadCloser: rc}
}

// WriteOnly adapts a writer to a Handle that rejects reads.
func WriteOnly(wc io.WriteCloser) Handle {
	return &writeHandle{WriteCloser: wc}
}

type readHandle struct {
	io.ReadCloser
}

func (*readHandle) Write([]byte) (int, error) {
	return 0, ErrUnsupportedOperation
}

type writeHandle struct {
	io.WriteCloser
}

func (*writeHandle) Read([]byte) (int, error) {
	return 0, ErrUnsupportedOperation
}

// WithHandle opens path, passes the handle to fn and always closes it.
// A Close failure is reported, since write handles publish their data on Close.
func WithHandle(ctx context.Context, store ObjectStore, path string, mode OpenMode, fn func(Handle) error) (err error) {
	handle, err := store.Open(ctx, path, mode)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, handle.Close())
	}()

	return fn(handle)
}

// ReadAll reads the full content of path through a read handle.
func ReadAll(ctx context.Context, store ObjectStore, path string) ([]byte, error) {
	var data []byte
	err := WithHandle(ctx, store, path, ModeReadBinary, func(h Handle) error {
		var err error
		data, err = io.ReadAll(h)
		return err
	})

	return data, err
}

// WriteAll replaces the content of path through a write handle.
func WriteAll(ctx context.Context, store ObjectStore, path string, data []byte) error {
	return WithHandle(ctx, store, path, ModeWriteBinary, func(h Handle) error {
		_, err := h.Write(data)
		return err
	})
}

// CommitFunc publishes the buffered content of a write handle.
type CommitFunc func(data []byte) error

// BufferedWriter returns a write handle that collects everything written to
// it and hands it to commit exactly once, on the first Close.
func BufferedWriter(commit CommitFunc) Handle {
	return WriteOnly(&bufferedWriter{commit: commit})
}

type bufferedWriter struct {
	commit CommitFunc
	buffer bytes.Buffer
	closed bool
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	if bw.closed {
		return 0, io.ErrClosedPipe
	}
	return bw.buffer.Write(p)
}

func (bw *bufferedWriter) Close() error {
	if bw.closed {
		return nil
	}
	bw.closed = true

	return bw.commit(bw.buffer.Bytes())
}
