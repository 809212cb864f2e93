package iox

import (
	"errors"
	"io"
	"sync"
)

// ErrStreamClosed is returned by reads on a LazyReader that has been closed.
var ErrStreamClosed = errors.New("stream closed")

// Opener produces the resource behind a LazyReader.
type Opener func() (io.ReadCloser, error)

// FromReader adapts an already-open reader into an Opener. If r is an
// io.Closer it is closed with the LazyReader.
func FromReader(r io.Reader) Opener {
	return func() (io.ReadCloser, error) {
		if rc, ok := r.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(r), nil
	}
}

// State is the lifecycle position of a LazyReader.
type State int

const (
	Unopened State = iota
	Open
	ClosedWithoutOpening
	OpenThenClosed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case ClosedWithoutOpening:
		return "closed-without-opening"
	case OpenThenClosed:
		return "open-then-closed"
	default:
		return "unknown"
	}
}

// LazyReader defers opening its resource until data is first requested.
// The opener runs at most once; if it fails, the failure is returned from
// every later read until the reader is closed.
type LazyReader struct {
	mu      sync.Mutex
	state   State
	open    Opener
	rc      io.ReadCloser
	openErr error
}

// NewLazyReader returns a reader that calls open on first use.
func NewLazyReader(open Opener) *LazyReader {
	return &LazyReader{open: open}
}

// State returns the current lifecycle state.
func (r *LazyReader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *LazyReader) acquire() (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Open:
		return r.rc, nil
	case ClosedWithoutOpening, OpenThenClosed:
		return nil, ErrStreamClosed
	}

	if r.openErr != nil {
		return nil, r.openErr
	}
	if r.open == nil {
		r.openErr = errors.New("no opener configured")
		return nil, r.openErr
	}

	rc, err := r.open()
	if err != nil {
		r.openErr = err
		return nil, err
	}
	if rc == nil {
		r.openErr = errors.New("opener returned a nil stream")
		return nil, r.openErr
	}
	r.rc = rc
	r.state = Open
	return rc, nil
}

// Read opens the resource if needed and reads from it.
func (r *LazyReader) Read(p []byte) (int, error) {
	rc, err := r.acquire()
	if err != nil {
		return 0, err
	}
	return rc.Read(p)
}

// WriteTo opens the resource if needed and copies it into w.
func (r *LazyReader) WriteTo(w io.Writer) (int64, error) {
	rc, err := r.acquire()
	if err != nil {
		return 0, err
	}
	if wt, ok := rc.(io.WriterTo); ok {
		return wt.WriteTo(w)
	}
	return io.Copy(w, onlyReader{rc})
}

// Close releases the resource. Closing an unopened reader never calls the
// opener. Close is idempotent.
func (r *LazyReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Unopened:
		r.state = ClosedWithoutOpening
		return nil
	case Open:
		r.state = OpenThenClosed
		rc := r.rc
		r.rc = nil
		return rc.Close()
	default:
		return nil
	}
}

// onlyReader hides any WriterTo/ReaderFrom so io.Copy cannot recurse.
type onlyReader struct {
	io.Reader
}
