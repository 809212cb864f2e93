package lazytext

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/iox"
)

// countingSupplied returns a holder producing value and a counter of how
// often it produced.
func countingSupplied(t *testing.T, b Bounds, value string) (*Supplied, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	s, err := Supply(b, func() (string, error) {
		calls.Add(1)
		return value, nil
	})
	if err != nil {
		t.Fatalf("Supply failed: %v", err)
	}
	return s, calls
}

func mustAppend(t *testing.T, seq *Sequence, holders ...Holder) {
	t.Helper()
	for _, h := range holders {
		if err := seq.Append(h); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
}

func nestedExample(t *testing.T, opts ...SequenceOption) *Sequence {
	t.Helper()
	one := NewSequence(opts...)
	mustAppend(t, one, NewLiteral(".1"))
	two := NewSequence(opts...)
	mustAppend(t, two, NewLiteral(".2"))

	seq := NewSequence(opts...)
	mustAppend(t, seq, NewLiteral("foo"), one, two, NewLiteral("bar"), NewLiteral("3"))
	return seq
}

func TestSequenceNestedExample(t *testing.T) {
	seq := nestedExample(t)

	frags := seq.Flatten()
	if diff := cmp.Diff([]string{"foo", ".1", ".2", "bar", "3"}, frags.Texts()); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
	if frags.Opaque() != 0 {
		t.Errorf("Flatten() left %d opaque fragments", frags.Opaque())
	}
	assertBounds(t, seq, 11, 11)

	got, err := seq.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "foo.1.2bar3" {
		t.Errorf("Resolve() = %q, want foo.1.2bar3", got)
	}
	if seq.Len() != 0 {
		t.Errorf("materialized sequence still holds %d segments", seq.Len())
	}
	if diff := cmp.Diff([]string{"foo.1.2bar3"}, seq.Flatten().Texts()); diff != "" {
		t.Errorf("Flatten() after resolution mismatch (-want +got):\n%s", diff)
	}
}

func TestSequenceOutputsAgree(t *testing.T) {
	build := func() *Sequence {
		s, _ := countingSupplied(t, Estimate(6), "middle")
		seq := NewSequence()
		mustAppend(t, seq, NewLiteral("<"), s, nestedExample(t), NewLiteral(">"))
		return seq
	}
	want := "<middlefoo.1.2bar3>"

	materialized, err := build().Resolve()
	if err != nil || materialized != want {
		t.Errorf("Resolve() = %q, %v", materialized, err)
	}

	var buf bytes.Buffer
	if _, err := build().WriteTo(&buf); err != nil || buf.String() != want {
		t.Errorf("WriteTo wrote %q, %v", buf.String(), err)
	}

	r, err := build().Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil || string(data) != want {
		t.Errorf("Open read %q, %v", data, err)
	}

	if got := build().String(); got != want {
		t.Errorf("String() = %q", got)
	}
}

func TestSequenceWriteToDoesNotMaterialize(t *testing.T) {
	s, calls := countingSupplied(t, Estimate(3), "lazy")
	seq := NewSequence()
	mustAppend(t, seq, NewLiteral("be "), s)

	var buf bytes.Buffer
	n, err := seq.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != 7 || buf.String() != "be lazy" {
		t.Errorf("WriteTo = %d, %q", n, buf.String())
	}
	if seq.State() != Unresolved {
		t.Errorf("State() = %v after WriteTo, want unresolved", seq.State())
	}
	if seq.Len() != 2 {
		t.Errorf("Len() = %d after WriteTo, want 2", seq.Len())
	}
	if calls.Load() != 1 {
		t.Errorf("nested holder resolved %d times", calls.Load())
	}

	// The sequence stays appendable.
	if err := seq.AppendString("!"); err != nil {
		t.Errorf("AppendString after WriteTo failed: %v", err)
	}
}

func TestSequenceOpenIsLazy(t *testing.T) {
	s, calls := countingSupplied(t, Estimate(4), "tail")
	seq := NewSequence()
	mustAppend(t, seq, NewLiteral("head"), s)

	r, err := seq.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("Open resolved a nested holder")
	}

	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil || string(head) != "head" {
		t.Fatalf("read %q, %v", head, err)
	}
	if calls.Load() != 0 {
		t.Error("nested holder resolved before the reader reached it")
	}

	rest, err := io.ReadAll(r)
	if err != nil || string(rest) != "tail" {
		t.Errorf("read rest %q, %v", rest, err)
	}
	if calls.Load() != 1 {
		t.Errorf("nested holder resolved %d times", calls.Load())
	}
}

func TestSequenceDropsEmptyHolders(t *testing.T) {
	empty := newTestSupplied(t, Bounds{}, "")
	if _, err := empty.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	pending := newTestSupplied(t, Bounds{}, "")

	seq := NewSequence()
	if err := seq.AppendString(""); err != nil {
		t.Fatalf("AppendString failed: %v", err)
	}
	mustAppend(t, seq, nil, NewLiteral(""), empty)
	if seq.Len() != 0 {
		t.Errorf("Len() = %d, want 0", seq.Len())
	}

	// Not known to be empty yet, so it is kept.
	mustAppend(t, seq, pending)
	if seq.Len() != 1 {
		t.Errorf("Len() = %d, want 1", seq.Len())
	}
}

func TestSequenceLedgerTracksAppends(t *testing.T) {
	seq := NewSequence()
	mustAppend(t, seq, newTestSupplied(t, Bounds{Min: 2, Expected: 5}, "hello"))
	if err := seq.AppendString("abc"); err != nil {
		t.Fatalf("AppendString failed: %v", err)
	}
	if err := seq.Appendf("-%d-", 42); err != nil {
		t.Fatalf("Appendf failed: %v", err)
	}
	assertBounds(t, seq, 9, 12)

	v, err := seq.Resolve()
	if err != nil || v != "helloabc-42-" {
		t.Errorf("Resolve() = %q, %v", v, err)
	}
	assertBounds(t, seq, 12, 12)
}

func TestSequenceScopeRejectsAppend(t *testing.T) {
	seq := NewSequence()
	err := seq.Attach(ScopeFuncs{
		OnResize: func(h Holder, minDelta, expDelta int64) error {
			if expDelta > 3 {
				return errors.New("too long")
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if err := seq.AppendString("ok"); err != nil {
		t.Fatalf("AppendString failed: %v", err)
	}
	if err := seq.AppendString("rejected"); !IsScopeError(err) {
		t.Fatalf("expected ScopeError, got %v", err)
	}
	if seq.Len() != 1 {
		t.Errorf("rejected text was stored: Len() = %d", seq.Len())
	}
	if v, _ := seq.Resolve(); v != "ok" {
		t.Errorf("Resolve() = %q, want ok", v)
	}
}

func TestSequenceSelfAppend(t *testing.T) {
	seq := NewSequence()
	if err := seq.Append(seq); !IsContractError(err) {
		t.Errorf("expected ContractError, got %v", err)
	}
}

func TestSequenceSealedAfterResolve(t *testing.T) {
	seq := NewSequence()
	mustAppend(t, seq, NewLiteral("done"))
	if _, err := seq.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if err := seq.AppendString("more"); !IsContractError(err) {
		t.Errorf("AppendString after Resolve: expected ContractError, got %v", err)
	}
	if err := seq.Append(newTestSupplied(t, Bounds{}, "x")); !IsContractError(err) {
		t.Errorf("Append after Resolve: expected ContractError, got %v", err)
	}
	if v := seq.String(); v != "done" {
		t.Errorf("String() = %q", v)
	}
}

func TestStringSequenceResolvesOnAppend(t *testing.T) {
	s, calls := countingSupplied(t, Estimate(3), "now")
	seq := NewStringSequence()
	mustAppend(t, seq, s)

	if calls.Load() != 1 {
		t.Errorf("holder resolved %d times on append, want 1", calls.Load())
	}
	if got := seq.Segments(); len(got) != 1 || !got[0].IsText() {
		t.Errorf("Segments() = %+v, want one text segment", got)
	}
	assertBounds(t, seq, 3, 3)
}

func TestStringSequenceAppendFailure(t *testing.T) {
	boom := errors.New("unavailable")
	s, err := Supply(Bounds{}, func() (string, error) { return "", boom })
	if err != nil {
		t.Fatalf("Supply failed: %v", err)
	}

	seq := NewStringSequence()
	if err := seq.Append(s); !errors.Is(err, boom) {
		t.Errorf("expected append to report %v, got %v", boom, err)
	}
	if seq.Len() != 0 {
		t.Errorf("Len() = %d after failed append", seq.Len())
	}
}

func TestSequenceNestedErrorFlag(t *testing.T) {
	broken, err := Stream(Exactly(3), func() (io.ReadCloser, error) {
		return nil, errors.New("unreachable host")
	}, iox.Always(iox.Discard))
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	seq := NewSequence()
	mustAppend(t, seq, NewLiteral("ab"), broken)
	assertBounds(t, seq, 5, 5)

	v, err := seq.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if v != "ab" {
		t.Errorf("Resolve() = %q, want ab", v)
	}
	if !seq.HasError() {
		t.Error("sequence should carry the nested error flag")
	}
	if seq.State() != ResolvedError {
		t.Errorf("State() = %v, want resolved-error", seq.State())
	}
	assertBounds(t, seq, 2, 2)
}

func TestSequenceNestedFailure(t *testing.T) {
	boom := errors.New("quota exhausted")
	failing, err := Supply(Bounds{}, func() (string, error) { return "", boom })
	if err != nil {
		t.Fatalf("Supply failed: %v", err)
	}

	seq := NewSequence()
	mustAppend(t, seq, NewLiteral("a"), failing)

	_, err = seq.Resolve()
	var ctxErr *ContextError
	if !errors.As(err, &ctxErr) {
		t.Fatalf("expected ContextError, got %T: %v", err, err)
	}
	if ctxErr.Context["segment"] != 1 {
		t.Errorf("segment = %v, want 1", ctxErr.Context["segment"])
	}
	if !IsProductionError(err) || !errors.Is(err, boom) {
		t.Errorf("expected ProductionError wrapping %v, got %v", boom, err)
	}
	if seq.String() != "" {
		t.Errorf("String() = %q after failure", seq.String())
	}
}

func TestSequenceKindsDoNotMerge(t *testing.T) {
	inner := NewStringSequence()
	if err := inner.AppendString("strings"); err != nil {
		t.Fatalf("AppendString failed: %v", err)
	}

	seq := NewSequence()
	mustAppend(t, seq, NewLiteral("default "), inner)

	frags := seq.Flatten()
	if len(frags) != 2 || frags.Opaque() != 1 {
		t.Fatalf("Flatten() = %+v, want text plus one opaque holder", frags)
	}
	if frags[1].Holder != inner {
		t.Error("opaque fragment should be the nested sequence")
	}
	if frags.MinLength() != 15 {
		t.Errorf("MinLength() = %d, want 15", frags.MinLength())
	}

	if v, err := seq.Resolve(); err != nil || v != "default strings" {
		t.Errorf("Resolve() = %q, %v", v, err)
	}
}

func TestSequenceSealedNestedStaysOpaque(t *testing.T) {
	inner := NewSequence()
	mustAppend(t, inner, newTestSupplied(t, Bounds{}, "inner"))
	inner.seal()

	seq := NewSequence()
	mustAppend(t, seq, inner)

	frags := seq.Flatten()
	if len(frags) != 1 || frags[0].Holder != inner {
		t.Errorf("Flatten() = %+v, want the sealed sequence kept opaque", frags)
	}
}

func TestWriteAll(t *testing.T) {
	seq := NewSequence()
	mustAppend(t, seq, NewLiteral("b"))

	var sb strings.Builder
	n, err := WriteAll(&sb, NewLiteral("a"), seq, newTestSupplied(t, Estimate(1), "c"))
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if n != 3 || sb.String() != "abc" {
		t.Errorf("WriteAll = %d, %q", n, sb.String())
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindDefault:    "default",
		KindStrings:    "strings",
		KindConcurrent: "concurrent",
		Kind(9):        "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}

func TestSequenceMaxPresizeOption(t *testing.T) {
	seq := NewSequence(WithMaxPresize(3))
	if err := seq.AppendString("abcdefgh"); err != nil {
		t.Fatalf("AppendString failed: %v", err)
	}

	var sink growRecorder
	if _, err := seq.WriteTo(&sink); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if len(sink.grown) != 1 || sink.grown[0] != 3 {
		t.Errorf("Grow calls = %v, want [3]", sink.grown)
	}
}

func TestSequenceScopeCallbackCanReadSegments(t *testing.T) {
	seq := NewSequence()
	var seen []int
	err := seq.Attach(ScopeFuncs{
		OnResize: func(h Holder, minDelta, expDelta int64) error {
			seen = append(seen, seq.Len(), len(seq.Segments()))
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		if err := seq.AppendString("a"); err != nil {
			done <- err
			return
		}
		done <- seq.Append(newTestSupplied(t, Estimate(2), "bc"))
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("append blocked while the scope read the sequence")
	}

	// Each callback runs before its fragment is stored.
	if want := []int{0, 0, 1, 1}; !cmp.Equal(want, seen) {
		t.Errorf("callback saw %v, want %v", seen, want)
	}
}
