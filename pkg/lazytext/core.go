package lazytext

import (
	"sync"
	"sync/atomic"
)

// Core carries the state every holder variant shares: the length ledger,
// the error flag, the scope attachment and the one-shot resolution cell.
//
// Queries read atomics and never block. Ledger mutations and scope changes
// are serialized by mu. Resolution runs at most once under a sync.Once;
// value and failure are written inside it and only read after it returns
// or after state has left Unresolved.
type Core struct {
	mu      sync.Mutex
	self    Holder
	kind    string
	min     atomic.Int64
	exp     atomic.Int64
	errFlag atomic.Bool
	cause   atomic.Pointer[errorBox]
	scope   atomic.Pointer[scopeBox]
	state   atomic.Int32
	once    sync.Once
	value   string
	failure error
}

type errorBox struct {
	err error
}

type scopeBox struct {
	scope Scope
}

func (c *Core) init(self Holder, kind string, b Bounds) error {
	if err := b.validate(); err != nil {
		return err
	}
	c.self = self
	c.kind = kind
	c.min.Store(b.Min)
	c.exp.Store(b.Expected)
	return nil
}

// MinLength is a lower bound on the eventual content length.
func (c *Core) MinLength() int64 { return c.min.Load() }

// ExpectedLength is the best current estimate of the content length.
func (c *Core) ExpectedLength() int64 { return c.exp.Load() }

// State reports where the holder is in its lifecycle.
func (c *Core) State() State { return State(c.state.Load()) }

func (c *Core) settled() bool { return c.State() != Unresolved }

// IsResolved reports whether the content is cached and readable.
func (c *Core) IsResolved() bool {
	return c.settled() && c.failure == nil
}

// IsLengthKnown reports whether MinLength is the actual length.
func (c *Core) IsLengthKnown() bool { return c.IsResolved() }

// IsKnownEmpty is true only once resolution has produced empty content.
// A minimum length of zero is not enough.
func (c *Core) IsKnownEmpty() bool {
	return c.IsResolved() && len(c.value) == 0
}

// HasError reports whether the error flag is set.
func (c *Core) HasError() bool { return c.errFlag.Load() }

// Err returns the cause recorded with the error flag, or the failure that
// ended resolution.
func (c *Core) Err() error {
	if box := c.cause.Load(); box != nil {
		return box.err
	}
	if c.settled() {
		return c.failure
	}
	return nil
}

// MarkError sets the error flag. While it is set the ledger accepts
// shrinking updates and resolution corrects lengths silently.
func (c *Core) MarkError(cause error) {
	if cause != nil {
		c.cause.Store(&errorBox{err: cause})
	}
	c.errFlag.Store(true)
}

// ClearError clears the error flag and its recorded cause.
func (c *Core) ClearError() {
	c.errFlag.Store(false)
	c.cause.Store(nil)
}

// resolve runs produce exactly once and returns the cached outcome.
func (c *Core) resolve(produce func() (string, error)) (string, error) {
	c.once.Do(func() {
		c.run(produce)
	})
	return c.value, c.failure
}

func (c *Core) run(produce func() (string, error)) {
	value, err := c.produceSafely(produce)
	if err != nil {
		c.fail(err)
		return
	}

	if err := c.settle(int64(len(value))); err != nil {
		c.fail(err)
		return
	}

	c.value = value
	if c.errFlag.Load() {
		c.state.Store(int32(ResolvedError))
	} else {
		c.state.Store(int32(Resolved))
	}

	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithFields(Fields{
			"holder": c.kind,
			"length": len(value),
			"error":  c.errFlag.Load(),
		}).Debug("Resolved holder")
	}
}

func (c *Core) fail(err error) {
	c.failure = err
	c.MarkError(err)
	c.state.Store(int32(ResolvedError))
}

func (c *Core) produceSafely(produce func() (string, error)) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewProductionError(c.kind, RecoverError(r))
		}
	}()
	return produce()
}

// resolveLiteral settles a holder whose content is known at construction.
func (c *Core) resolveLiteral(value string) {
	c.once.Do(func() {
		c.value = value
		c.state.Store(int32(Resolved))
	})
}
