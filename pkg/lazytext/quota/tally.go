package quota

import (
	"sync"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext"
)

var _ lazytext.Scope = (*Tally)(nil)

// Snapshot is a point-in-time view of a Tally.
type Snapshot struct {
	Holders  int
	Min      int64
	Expected int64
	Resizes  int
}

// Tally is a scope that never refuses anything. It counts the holders
// attached to it and sums their lengths.
type Tally struct {
	mu      sync.Mutex
	holders int
	min     int64
	exp     int64
	resizes int
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{}
}

func (t *Tally) Add(h lazytext.Holder) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.holders++
	t.min += h.MinLength()
	t.exp += h.ExpectedLength()
	return nil
}

func (t *Tally) Remove(h lazytext.Holder) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.holders--
	t.min -= h.MinLength()
	t.exp -= h.ExpectedLength()
	return nil
}

func (t *Tally) Resize(h lazytext.Holder, minDelta, expDelta int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.min += minDelta
	t.exp += expDelta
	t.resizes++
	return nil
}

// Snapshot returns the current counts.
func (t *Tally) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Holders:  t.holders,
		Min:      t.min,
		Expected: t.exp,
		Resizes:  t.resizes,
	}
}
