package lazytext

import (
	"fmt"
	"math"
)

// MaxLength is the saturation point of every length a ledger tracks.
const MaxLength int64 = math.MaxInt64

// Bounds declares a holder's length before it is resolved. Min is a
// guarantee; Expected is an estimate used for pre-sizing and quotas.
type Bounds struct {
	Min      int64
	Expected int64
}

// Exactly declares a holder whose length is known up front.
func Exactly(n int64) Bounds {
	return Bounds{Min: n, Expected: n}
}

// Estimate declares no guaranteed length, only an expected one.
func Estimate(n int64) Bounds {
	return Bounds{Expected: n}
}

func (b Bounds) validate() error {
	if b.Min < 0 || b.Expected < 0 {
		return NewContractError("declare", fmt.Sprintf("negative bounds min=%d expected=%d", b.Min, b.Expected))
	}
	if b.Min > b.Expected {
		return NewContractError("declare", fmt.Sprintf("minimum %d exceeds expected %d", b.Min, b.Expected))
	}
	return nil
}

// saturatingAdd adds two lengths, pinning at MaxLength instead of wrapping.
// a is never negative.
func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > MaxLength-b {
		return MaxLength
	}
	return a + b
}

func floorZero(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// ResizeBy adds the deltas to the minimum and expected lengths. Negative
// deltas are only accepted while the error flag is set, and then floor at
// zero. The attached scope sees the change before it is committed.
func (c *Core) ResizeBy(minDelta, expDelta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	forced := c.errFlag.Load()
	if !forced && c.settled() {
		return NewContractError("resizeBy", "holder already resolved")
	}
	if !forced && (minDelta < 0 || expDelta < 0) {
		return NewContractError("resizeBy", fmt.Sprintf("negative delta min=%d expected=%d outside error state", minDelta, expDelta))
	}

	oldMin, oldExp := c.min.Load(), c.exp.Load()
	newMin := floorZero(saturatingAdd(oldMin, minDelta))
	newExp := floorZero(saturatingAdd(oldExp, expDelta))
	if newExp < newMin {
		newExp = newMin
	}
	return c.commitLocked("resizeBy", oldMin, oldExp, newMin, newExp, forced)
}

// ResizeTo sets absolute lengths. Lowering the minimum is only accepted
// while the error flag is set; the expected length may move freely as long
// as it stays at or above the minimum.
func (c *Core) ResizeTo(min, expected int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if min < 0 || expected < 0 {
		return NewContractError("resizeTo", fmt.Sprintf("negative length min=%d expected=%d", min, expected))
	}
	if min > expected {
		return NewContractError("resizeTo", fmt.Sprintf("minimum %d exceeds expected %d", min, expected))
	}

	forced := c.errFlag.Load()
	if !forced && c.settled() {
		return NewContractError("resizeTo", "holder already resolved")
	}

	oldMin, oldExp := c.min.Load(), c.exp.Load()
	if !forced && min < oldMin {
		return NewContractError("resizeTo", fmt.Sprintf("cannot lower minimum from %d to %d outside error state", oldMin, min))
	}
	return c.commitLocked("resizeTo", oldMin, oldExp, min, expected, forced)
}

// commitLocked forwards the effective change to the scope and stores it.
// A forced change is applied even if the scope rejects it.
func (c *Core) commitLocked(op string, oldMin, oldExp, newMin, newExp int64, forced bool) error {
	minDelta, expDelta := newMin-oldMin, newExp-oldExp
	if minDelta == 0 && expDelta == 0 {
		return nil
	}

	if box := c.scope.Load(); box != nil {
		if err := box.scope.Resize(c.self, minDelta, expDelta); err != nil {
			if !forced {
				return NewScopeError(op, err)
			}
			GetLogger().WithFields(Fields{
				"holder":    c.kind,
				"min_delta": minDelta,
				"exp_delta": expDelta,
			}).Warn("Applying forced length correction despite scope rejection: %v", err)
		}
	}

	c.min.Store(newMin)
	c.exp.Store(newExp)
	return nil
}

// settle runs the mispredicted-length check and pins both bounds to
// the produced length.
func (c *Core) settle(actual int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	forced := c.errFlag.Load()
	oldMin, oldExp := c.min.Load(), c.exp.Load()
	if actual < oldMin && !forced {
		return NewContractError("resolve", fmt.Sprintf("%s holder produced %d bytes, below its declared minimum of %d", c.kind, actual, oldMin))
	}
	return c.commitLocked("resolve", oldMin, oldExp, actual, actual, forced)
}
