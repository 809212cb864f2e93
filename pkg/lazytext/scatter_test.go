package lazytext

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/iox"
)

// reverseExecutor holds submitted tasks back until the first Wait, then
// runs all of them in reverse submission order.
type reverseExecutor struct {
	mu        sync.Mutex
	pending   []*deferredTask
	submitted int
}

type deferredTask struct {
	exec *reverseExecutor
	task func() error
	err  error
}

func (r *reverseExecutor) Submit(task func() error) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &deferredTask{exec: r, task: task}
	r.pending = append(r.pending, d)
	r.submitted++
	return d
}

func (r *reverseExecutor) drain() {
	r.mu.Lock()
	tasks := r.pending
	r.pending = nil
	r.mu.Unlock()

	for i := len(tasks) - 1; i >= 0; i-- {
		tasks[i].err = runTask(tasks[i].task)
	}
}

func (d *deferredTask) Wait() error {
	d.exec.drain()
	return d.err
}

// countingExecutor counts submissions and runs them inline.
type countingExecutor struct {
	submits atomic.Int32
}

func (c *countingExecutor) Submit(task func() error) Handle {
	c.submits.Add(1)
	return Inline().Submit(task)
}

func TestScatterGatherKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(v string) Holder {
		s, err := Supply(Estimate(1), func() (string, error) {
			mu.Lock()
			order = append(order, v)
			mu.Unlock()
			return v, nil
		})
		if err != nil {
			t.Fatalf("Supply failed: %v", err)
		}
		return s
	}

	exec := &reverseExecutor{}
	seq := NewConcurrentSequence(exec)
	mustAppend(t, seq, NewLiteral("a"), record("1"), NewLiteral("-"), record("2"), record("3"), NewLiteral("b"))

	v, err := seq.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if v != "a1-23b" {
		t.Errorf("Resolve() = %q, want a1-23b", v)
	}
	if got := strings.Join(order, ""); got != "321" {
		t.Errorf("resolution order = %q, want 321", got)
	}
	if exec.submitted != 3 {
		t.Errorf("submitted %d tasks, want 3", exec.submitted)
	}
}

func TestScatterGatherOnPool(t *testing.T) {
	const n = 50
	seq := NewConcurrentSequence(NewPool(4))

	var want strings.Builder
	for i := 0; i < n; i++ {
		value := fmt.Sprintf("[%d]", i)
		want.WriteString(value)
		delay := time.Duration(rand.Intn(2000)) * time.Microsecond
		s, err := Supply(Estimate(int64(len(value))), func() (string, error) {
			time.Sleep(delay)
			return value, nil
		})
		if err != nil {
			t.Fatalf("Supply failed: %v", err)
		}
		mustAppend(t, seq, s)
		if i%10 == 0 {
			if err := seq.AppendString("|"); err != nil {
				t.Fatalf("AppendString failed: %v", err)
			}
			want.WriteString("|")
		}
	}

	v, err := seq.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if v != want.String() {
		t.Errorf("Resolve() = %q, want %q", v, want.String())
	}
}

func TestScatterGatherResolvedPrefixIsNotSubmitted(t *testing.T) {
	resolved := newTestSupplied(t, Bounds{}, "y")
	if _, err := resolved.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	exec := &countingExecutor{}
	seq := NewConcurrentSequence(exec)
	mustAppend(t, seq, NewLiteral("x"), resolved, newTestSupplied(t, Bounds{}, "z"), NewLiteral("w"))

	v, err := seq.Resolve()
	if err != nil || v != "xyzw" {
		t.Fatalf("Resolve() = %q, %v", v, err)
	}
	if exec.submits.Load() != 1 {
		t.Errorf("submitted %d tasks, want 1", exec.submits.Load())
	}
}

func TestScatterGatherNothingToSubmit(t *testing.T) {
	exec := &countingExecutor{}
	seq := NewConcurrentSequence(exec)
	mustAppend(t, seq, NewLiteral("only"), NewLiteral(" text"))

	if v, err := seq.Resolve(); err != nil || v != "only text" {
		t.Fatalf("Resolve() = %q, %v", v, err)
	}
	if exec.submits.Load() != 0 {
		t.Errorf("submitted %d tasks, want 0", exec.submits.Load())
	}
}

func TestScatterGatherJoinsFailures(t *testing.T) {
	first := errors.New("first failure")
	second := errors.New("second failure")
	var slowDone atomic.Bool

	failing := func(err error) Holder {
		s, serr := Supply(Bounds{}, func() (string, error) { return "", err })
		if serr != nil {
			t.Fatalf("Supply failed: %v", serr)
		}
		return s
	}
	slow, err := Supply(Bounds{}, func() (string, error) {
		time.Sleep(20 * time.Millisecond)
		slowDone.Store(true)
		return "slow", nil
	})
	if err != nil {
		t.Fatalf("Supply failed: %v", err)
	}

	seq := NewConcurrentSequence(NewPool(8))
	mustAppend(t, seq, failing(first), slow, failing(second))

	_, err = seq.Resolve()
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both failures, got %v", err)
	}
	var multi *MultiError
	if !errors.As(err, &multi) || multi.Len() != 2 {
		t.Errorf("expected a MultiError with 2 entries, got %v", err)
	}
	if !slowDone.Load() {
		t.Error("Resolve returned before every task finished")
	}
	if seq.State() != ResolvedError {
		t.Errorf("State() = %v, want resolved-error", seq.State())
	}
}

func TestScatterGatherNestedOnSinglePool(t *testing.T) {
	pool := NewPool(1)

	outer := NewConcurrentSequence(pool)
	var want strings.Builder
	for i := 0; i < 3; i++ {
		inner := NewConcurrentSequence(pool)
		for j := 0; j < 3; j++ {
			value := fmt.Sprintf("%d.%d;", i, j)
			want.WriteString(value)
			mustAppend(t, inner, newTestSupplied(t, Estimate(4), value))
		}
		// The conditional hides the nested sequence from flattening, so it
		// resolves as its own scatter on the same pool.
		mustAppend(t, outer, If(inner, nil))
	}

	done := make(chan struct{})
	var got string
	var err error
	go func() {
		defer close(done)
		got, err = outer.Resolve()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("nested scatter on a single-slot pool deadlocked")
	}
	if err != nil || got != want.String() {
		t.Errorf("Resolve() = %q, %v; want %q", got, err, want.String())
	}
}

func TestScatterGatherNestedErrorFlag(t *testing.T) {
	broken, err := Stream(Estimate(8), func() (io.ReadCloser, error) {
		return nil, errors.New("timeout")
	}, iox.Always(iox.AppendMessage))
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	seq := NewConcurrentSequence(Inline())
	mustAppend(t, seq, NewLiteral("got: "), broken)

	v, err := seq.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if v != "got: timeout" {
		t.Errorf("Resolve() = %q", v)
	}
	if !seq.HasError() {
		t.Error("sequence should carry the nested error flag")
	}
}

func TestConcurrentSequenceWriteToResolves(t *testing.T) {
	seq := NewConcurrentSequence(Inline())
	mustAppend(t, seq, NewLiteral("a"), newTestSupplied(t, Bounds{}, "b"))

	var sb strings.Builder
	if _, err := seq.WriteTo(&sb); err != nil || sb.String() != "ab" {
		t.Fatalf("WriteTo wrote %q, %v", sb.String(), err)
	}
	if seq.State() != Resolved {
		t.Errorf("State() = %v, want resolved", seq.State())
	}
}
