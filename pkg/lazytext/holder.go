package lazytext

import (
	"io"
	"strings"
)

// State is the position of a holder in its resolution lifecycle.
type State int32

const (
	// Unresolved holders have not produced their content yet.
	Unresolved State = iota
	// Resolved holders have cached their content.
	Resolved
	// ResolvedError holders finished resolving with the error flag set, or
	// failed outright; Resolve reports which.
	ResolvedError
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case ResolvedError:
		return "resolved-error"
	default:
		return "unknown"
	}
}

// Sizable exposes a holder's length knowledge without resolving it.
type Sizable interface {
	MinLength() int64
	ExpectedLength() int64
	IsLengthKnown() bool
	IsKnownEmpty() bool
}

// Resolvable is implemented by values that produce their content once.
type Resolvable interface {
	Resolve() (string, error)
	IsResolved() bool
	State() State
	HasError() bool
	Err() error
}

// StreamSource writes or streams a holder's content.
type StreamSource interface {
	io.WriterTo
	Open() (io.Reader, error)
}

// Scoped is the mutation surface shared by every holder: ledger updates
// for custom production strategies and scope attachment.
type Scoped interface {
	ResizeBy(minDelta, expDelta int64) error
	ResizeTo(min, expected int64) error
	MarkError(cause error)
	ClearError()
	Attach(s Scope) error
	Detach() error
	Scope() Scope
}

// Holder is a value that may lazily become a string.
type Holder interface {
	Sizable
	Resolvable
	StreamSource
	Scoped
	String() string
}

// writeResolved resolves h and writes its content to w.
func writeResolved(h Resolvable, w io.Writer) (int64, error) {
	v, err := h.Resolve()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, v)
	return int64(n), err
}

// openResolved resolves h and returns a reader over its content.
func openResolved(h Resolvable) (io.Reader, error) {
	v, err := h.Resolve()
	if err != nil {
		return nil, err
	}
	return strings.NewReader(v), nil
}

// stringOrEmpty backs the String methods: failures render as "".
func stringOrEmpty(h Resolvable) string {
	v, err := h.Resolve()
	if err != nil {
		return ""
	}
	return v
}
