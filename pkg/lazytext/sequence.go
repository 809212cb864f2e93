package lazytext

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Kind selects how a sequence treats appended holders and how it
// materializes. Flattening only merges nested sequences of the same kind.
type Kind int

const (
	// KindDefault stores holders lazily and materializes sequentially.
	KindDefault Kind = iota
	// KindStrings resolves every holder as it is appended.
	KindStrings
	// KindConcurrent stores holders lazily and materializes them through
	// the scatter-gather assembler.
	KindConcurrent
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindStrings:
		return "strings"
	case KindConcurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

func (k Kind) convertsOnAppend() bool {
	return k == KindStrings
}

// Sequence is an ordered, appendable list of literal text and holders that
// is itself a holder. Once it starts materializing it is sealed and
// further appends fail.
type Sequence struct {
	Core
	kind       Kind
	exec       Executor
	maxPresize int64

	// appendMu serializes appends and sealing; it is held across the
	// ledger update so scope callbacks can still read the segments.
	appendMu sync.Mutex
	segMu    sync.Mutex
	segs     []Fragment
	sealed   bool
}

// SequenceOption configures a Sequence at construction.
type SequenceOption func(*Sequence)

// WithKind sets the sequence kind.
func WithKind(k Kind) SequenceOption {
	return func(s *Sequence) {
		s.kind = k
	}
}

// WithExecutor sets the executor a concurrent sequence dispatches to.
func WithExecutor(e Executor) SequenceOption {
	return func(s *Sequence) {
		s.exec = e
	}
}

// WithMaxPresize caps how many bytes the sequence reserves in a sink up
// front. Without it the global MaxPresize applies.
func WithMaxPresize(n int) SequenceOption {
	return func(s *Sequence) {
		s.maxPresize = int64(n)
	}
}

// NewSequence returns an empty sequence, KindDefault unless an option says
// otherwise.
func NewSequence(opts ...SequenceOption) *Sequence {
	s := &Sequence{}
	for _, opt := range opts {
		opt(s)
	}
	_ = s.init(s, "sequence", Bounds{})
	return s
}

// NewStringSequence returns a sequence that resolves holders on append.
func NewStringSequence() *Sequence {
	return NewSequence(WithKind(KindStrings))
}

// NewConcurrentSequence returns a sequence that materializes through the
// scatter-gather assembler on exec, or on DefaultExecutor when exec is nil.
func NewConcurrentSequence(exec Executor) *Sequence {
	return NewSequence(WithKind(KindConcurrent), WithExecutor(exec))
}

// Kind returns the sequence kind.
func (s *Sequence) Kind() Kind {
	return s.kind
}

func (s *Sequence) presizeLimit() int64 {
	if s.maxPresize > 0 {
		return s.maxPresize
	}
	return int64(GetGlobalConfig().MaxPresize)
}

func (s *Sequence) executor() Executor {
	if s.exec != nil {
		return s.exec
	}
	return DefaultExecutor()
}

// Append adds h to the end of the sequence. Nil and known-empty holders are
// dropped. The ledger grows by h's bounds before h is stored; if that is
// rejected, h is not stored.
func (s *Sequence) Append(h Holder) error {
	if h == nil {
		return nil
	}
	if other, ok := h.(*Sequence); ok && other == s {
		return NewContractError("append", "a sequence cannot contain itself")
	}
	if lit, ok := h.(*Literal); ok {
		return s.AppendString(lit.text)
	}
	if h.IsKnownEmpty() {
		return nil
	}

	if s.kind.convertsOnAppend() {
		if err := s.checkOpen(); err != nil {
			return err
		}
		v, err := h.Resolve()
		if err != nil {
			return err
		}
		if h.HasError() {
			s.MarkError(h.Err())
		}
		return s.AppendString(v)
	}

	return s.store(Fragment{Holder: h}, h.MinLength(), h.ExpectedLength())
}

// AppendString adds literal text. Empty text is dropped.
func (s *Sequence) AppendString(text string) error {
	if text == "" {
		return nil
	}

	n := int64(len(text))
	return s.store(Fragment{Text: text}, n, n)
}

// store grows the ledger and then records f. The segment lock is not held
// while the scope sees the resize.
func (s *Sequence) store(f Fragment, min, exp int64) error {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.ResizeBy(min, exp); err != nil {
		return err
	}
	s.segMu.Lock()
	s.segs = append(s.segs, f)
	s.segMu.Unlock()
	return nil
}

// Appendf formats according to a format specifier and appends the result.
func (s *Sequence) Appendf(format string, args ...interface{}) error {
	return s.AppendString(fmt.Sprintf(format, args...))
}

func (s *Sequence) checkOpen() error {
	s.segMu.Lock()
	defer s.segMu.Unlock()
	if s.sealed {
		return NewContractError("append", "sequence sealed")
	}
	return nil
}

// Len returns the number of stored segments. A materialized sequence has
// none; its content lives in the resolved value.
func (s *Sequence) Len() int {
	s.segMu.Lock()
	defer s.segMu.Unlock()
	return len(s.segs)
}

// Segments returns a copy of the top-level segments without flattening.
func (s *Sequence) Segments() Fragments {
	segs, _ := s.snapshot()
	return segs
}

func (s *Sequence) snapshot() (Fragments, bool) {
	s.segMu.Lock()
	defer s.segMu.Unlock()
	out := make(Fragments, len(s.segs))
	copy(out, s.segs)
	return out, s.sealed
}

func (s *Sequence) seal() {
	s.appendMu.Lock()
	s.segMu.Lock()
	s.sealed = true
	s.segMu.Unlock()
	s.appendMu.Unlock()
}

// Resolve materializes the sequence: every segment is appended in order
// into one string, which then replaces the segments.
func (s *Sequence) Resolve() (string, error) {
	return s.resolve(s.materialize)
}

func (s *Sequence) materialize() (string, error) {
	s.seal()

	frags, nestedErr := s.flatten(s.kind)

	var b strings.Builder
	presizeCapped(&b, s.MinLength(), s.presizeLimit())

	var err error
	if s.kind == KindConcurrent {
		var taskErr error
		taskErr, err = scatterGather(&b, frags, s.executor(), s.presizeLimit())
		if taskErr != nil {
			nestedErr = taskErr
		}
	} else {
		nestedErr, err = appendSequential(&b, frags, nestedErr)
	}
	if err != nil {
		return "", err
	}

	if nestedErr != nil {
		s.MarkError(nestedErr)
	}

	s.segMu.Lock()
	s.segs = nil
	s.segMu.Unlock()

	return b.String(), nil
}

// appendSequential resolves and appends each fragment in order. It returns
// the error cause of the last nested holder that finished with its error
// flag set, seeded with nestedErr.
func appendSequential(b *strings.Builder, frags Fragments, nestedErr error) (error, error) {
	for i, f := range frags {
		if f.Holder == nil {
			b.WriteString(f.Text)
			continue
		}
		v, err := f.Holder.Resolve()
		if err != nil {
			return nestedErr, WithContext(err, "materialize", map[string]interface{}{"segment": i})
		}
		b.WriteString(v)
		if f.Holder.HasError() {
			nestedErr = nestedCause(f.Holder)
		}
	}
	return nestedErr, nil
}

// nestedCause returns the recorded cause of h's error flag, or a generic
// error naming the flag when none was recorded.
func nestedCause(h Holder) error {
	if err := h.Err(); err != nil {
		return err
	}
	return errNestedFlag
}

var errNestedFlag = fmt.Errorf("nested holder has its error flag set")

func (s *Sequence) String() string {
	return stringOrEmpty(s)
}

// WriteTo streams the sequence into w. An unresolved default or strings
// sequence is written segment by segment without being materialized; each
// nested holder resolves only when it is reached.
func (s *Sequence) WriteTo(w io.Writer) (int64, error) {
	if s.kind == KindConcurrent || s.settled() {
		return writeResolved(s, w)
	}

	segs, sealed := s.snapshot()
	if sealed {
		return writeResolved(s, w)
	}

	presizeCapped(w, s.MinLength(), s.presizeLimit())
	var total int64
	for i, f := range segs {
		var n int64
		var err error
		if f.Holder == nil {
			var written int
			written, err = io.WriteString(w, f.Text)
			n = int64(written)
		} else {
			n, err = f.Holder.WriteTo(w)
		}
		total += n
		if err != nil {
			return total, WithContext(err, "write", map[string]interface{}{"segment": i})
		}
	}
	return total, nil
}

// Open returns a reader over the sequence. For an unresolved default or
// strings sequence the reader opens each nested holder only when it gets
// to it.
func (s *Sequence) Open() (io.Reader, error) {
	if s.kind == KindConcurrent || s.settled() {
		return openResolved(s)
	}

	segs, sealed := s.snapshot()
	if sealed {
		return openResolved(s)
	}
	return newSegmentReader(segs), nil
}
