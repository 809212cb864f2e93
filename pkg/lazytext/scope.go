package lazytext

// Scope observes the holders attached to it. A holder has at most one
// scope; a scope may observe many holders and receives callbacks from
// their resolution goroutines concurrently, so implementations must be
// safe for concurrent use.
//
// Returning an error from any callback rejects the operation that caused
// it. Callbacks run while the holder's mutation lock is held: they may
// query the holder but must not mutate it.
type Scope interface {
	Add(h Holder) error
	Remove(h Holder) error
	Resize(h Holder, minDelta, expDelta int64) error
}

// Attach moves the holder to s. The old scope, if any, is told first; if it
// refuses, nothing changes. If the old scope lets go but s refuses, the
// holder is left detached from both.
//
// TODO: make re-attachment atomic by re-adding to the old scope when the
// new one refuses, once scopes can express that re-add must not fail.
func (c *Core) Attach(s Scope) error {
	if s == nil {
		return c.Detach()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if box := c.scope.Load(); box != nil {
		if err := box.scope.Remove(c.self); err != nil {
			return NewScopeError("remove", err)
		}
		c.scope.Store(nil)
	}

	if err := s.Add(c.self); err != nil {
		return NewScopeError("add", err)
	}
	c.scope.Store(&scopeBox{scope: s})
	return nil
}

// Detach removes the holder from its scope. If the scope refuses, the
// holder stays attached.
func (c *Core) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	box := c.scope.Load()
	if box == nil {
		return nil
	}
	if err := box.scope.Remove(c.self); err != nil {
		return NewScopeError("remove", err)
	}
	c.scope.Store(nil)
	return nil
}

// Scope returns the attached scope, or nil.
func (c *Core) Scope() Scope {
	if box := c.scope.Load(); box != nil {
		return box.scope
	}
	return nil
}

// ScopeFuncs adapts plain functions into a Scope. Nil functions accept.
type ScopeFuncs struct {
	OnAdd    func(h Holder) error
	OnRemove func(h Holder) error
	OnResize func(h Holder, minDelta, expDelta int64) error
}

func (f ScopeFuncs) Add(h Holder) error {
	if f.OnAdd == nil {
		return nil
	}
	return f.OnAdd(h)
}

func (f ScopeFuncs) Remove(h Holder) error {
	if f.OnRemove == nil {
		return nil
	}
	return f.OnRemove(h)
}

func (f ScopeFuncs) Resize(h Holder, minDelta, expDelta int64) error {
	if f.OnResize == nil {
		return nil
	}
	return f.OnResize(h, minDelta, expDelta)
}
