package quota

import (
	"errors"
	"fmt"
	"sync"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext"
)

var _ lazytext.Scope = (*Limit)(nil)

// ErrExceeded is returned, wrapped, when a holder would take a Limit past
// its budget.
var ErrExceeded = errors.New("quota exceeded")

// Limit is a scope that keeps the summed expected length of its holders at
// or below a byte budget. Adds and growing resizes that would pass the
// budget are refused. Removals and shrinking resizes always succeed.
type Limit struct {
	mu      sync.Mutex
	max     int64
	used    int64
	holders map[lazytext.Holder]int64
}

// NewLimit returns a Limit with a budget of maxBytes.
func NewLimit(maxBytes int64) *Limit {
	return &Limit{
		max:     maxBytes,
		holders: make(map[lazytext.Holder]int64),
	}
}

// Max returns the budget.
func (l *Limit) Max() int64 {
	return l.max
}

// Used returns the summed expected length of the attached holders.
func (l *Limit) Used() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

// Remaining returns how many bytes can still be claimed.
func (l *Limit) Remaining() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.max - l.used
}

func (l *Limit) claim(n int64) error {
	if n > l.max-l.used {
		return fmt.Errorf("%w: %d bytes requested, %d of %d remaining", ErrExceeded, n, l.max-l.used, l.max)
	}
	return nil
}

func (l *Limit) Add(h lazytext.Holder) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.holders[h]; ok {
		return nil
	}
	n := h.ExpectedLength()
	if err := l.claim(n); err != nil {
		return err
	}
	l.holders[h] = n
	l.used += n
	return nil
}

func (l *Limit) Remove(h lazytext.Holder) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.holders[h]
	if !ok {
		return nil
	}
	delete(l.holders, h)
	l.used -= n
	return nil
}

func (l *Limit) Resize(h lazytext.Holder, minDelta, expDelta int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.holders[h]
	if !ok {
		return nil
	}
	if expDelta > 0 {
		if err := l.claim(expDelta); err != nil {
			return err
		}
	}
	if n+expDelta < 0 {
		expDelta = -n
	}
	l.holders[h] = n + expDelta
	l.used += expDelta
	return nil
}
