package lazytext

import (
	"io"
	"sync/atomic"
)

// Predicate decides whether content about to be produced is kept.
type Predicate func(content string) bool

const (
	undecided int32 = iota
	excluded
	included
)

// Conditional wraps a holder whose inclusion is decided at resolution time.
type Conditional struct {
	Core
	inner    Holder
	pred     Predicate
	decision atomic.Int32
}

// If returns a holder that resolves inner and then asks pred, exactly once,
// whether to keep the content. A nil predicate keeps it.
func If(inner Holder, pred Predicate) *Conditional {
	if inner == nil {
		inner = NewLiteral("")
	}
	c := &Conditional{inner: inner, pred: pred}
	// The minimum is zero since the content may be dropped.
	_ = c.init(c, "conditional", Estimate(inner.ExpectedLength()))
	return c
}

func (c *Conditional) produce() (string, error) {
	v, err := c.inner.Resolve()
	if err != nil {
		return "", err
	}
	if c.inner.HasError() {
		c.MarkError(c.inner.Err())
	}

	if c.pred != nil && !c.pred(v) {
		c.decision.Store(excluded)
		return "", nil
	}
	c.decision.Store(included)
	return v, nil
}

// Included reports the cached predicate decision. decided is false until
// the holder has resolved.
func (c *Conditional) Included() (include bool, decided bool) {
	switch c.decision.Load() {
	case included:
		return true, true
	case excluded:
		return false, true
	default:
		return false, false
	}
}

// Inner returns the wrapped holder.
func (c *Conditional) Inner() Holder {
	return c.inner
}

func (c *Conditional) Resolve() (string, error) {
	return c.resolve(c.produce)
}

func (c *Conditional) String() string {
	return stringOrEmpty(c)
}

func (c *Conditional) WriteTo(w io.Writer) (int64, error) {
	return writeResolved(c, w)
}

func (c *Conditional) Open() (io.Reader, error) {
	return openResolved(c)
}
