package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Object is a read-only handle to stored content. The bytes are fully
// fetched when the handle is created; after Close, Reopen re-fetches
// from the store instead of caching across the close.
type Object struct {
	backend *Backend
	key     string
	reader  *bytes.Reader
	size    int64
	closed  bool
}

var _ io.ReadSeekCloser = (*Object)(nil)

func newObject(backend *Backend, key string, data []byte) *Object {
	return &Object{
		backend: backend,
		key:     key,
		reader:  bytes.NewReader(data),
		size:    int64(len(data)),
	}
}

// Key returns the object's normalized key.
func (o *Object) Key() string { return o.key }

// Size returns the length of the fetched content in bytes.
func (o *Object) Size() int64 { return o.size }

func (o *Object) Read(p []byte) (int, error) {
	if o.closed {
		return 0, fmt.Errorf("%w: read on closed object %s, call Reopen first", ErrUsage, o.key)
	}
	return o.reader.Read(p)
}

func (o *Object) Seek(offset int64, whence int) (int64, error) {
	if o.closed {
		return 0, fmt.Errorf("%w: seek on closed object %s, call Reopen first", ErrUsage, o.key)
	}
	return o.reader.Seek(offset, whence)
}

// Close releases the buffered content. Closing twice is harmless.
func (o *Object) Close() error {
	o.closed = true
	o.reader = nil
	return nil
}

// Reopen makes a closed handle readable again by re-fetching the
// object from the store. Reopening an open handle rewinds it.
func (o *Object) Reopen(ctx context.Context) error {
	if !o.closed {
		_, err := o.reader.Seek(0, io.SeekStart)
		return err
	}
	data, err := o.backend.fetch(ctx, o.key)
	if err != nil {
		return err
	}
	o.reader = bytes.NewReader(data)
	o.size = int64(len(data))
	o.closed = false
	return nil
}
