package lazytext

import "strings"

type pendingSlot struct {
	segment int
	handle  Handle
}

// scatterGather appends frags to b, resolving unresolved holders
// concurrently on exec. Everything before the first unresolved holder is
// appended directly. From there on every fragment gets its own slot, each
// unresolved holder resolves into its slot on exec, and once all tasks
// have finished the slots are appended in order.
//
// The first return value is the cause of the last nested error flag seen;
// the second is the joined failure of the tasks.
func scatterGather(b *strings.Builder, frags Fragments, exec Executor, maxPresize int64) (error, error) {
	var nestedErr error

	start := 0
	for ; start < len(frags); start++ {
		f := frags[start]
		if f.Holder == nil {
			b.WriteString(f.Text)
			continue
		}
		if !f.Holder.IsResolved() {
			break
		}
		v, _ := f.Holder.Resolve()
		b.WriteString(v)
		if f.Holder.HasError() {
			nestedErr = nestedCause(f.Holder)
		}
	}
	if start == len(frags) {
		return nestedErr, nil
	}

	tail := frags[start:]
	slots := make([]string, len(tail))
	var pending []pendingSlot
	for i, f := range tail {
		if f.Holder == nil {
			slots[i] = f.Text
			continue
		}
		slot, h := i, f.Holder
		pending = append(pending, pendingSlot{
			segment: start + i,
			handle: exec.Submit(func() error {
				v, err := h.Resolve()
				if err != nil {
					return err
				}
				slots[slot] = v
				return nil
			}),
		})
	}

	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithFields(Fields{
			"scatter_point": start,
			"tasks":         len(pending),
			"slots":         len(slots),
		}).Debug("Dispatched scatter tasks")
	}

	errs := NewMultiError()
	for _, p := range pending {
		if err := p.handle.Wait(); err != nil {
			errs.Add(WithContext(err, "scatter", map[string]interface{}{"segment": p.segment}))
		}
	}
	if err := errs.Err(); err != nil {
		return nestedErr, err
	}

	var remaining int64
	for i, f := range tail {
		remaining = saturatingAdd(remaining, int64(len(slots[i])))
		if f.Holder != nil && f.Holder.HasError() {
			nestedErr = nestedCause(f.Holder)
		}
	}

	presizeCapped(b, remaining, maxPresize)
	for _, s := range slots {
		b.WriteString(s)
	}
	return nestedErr, nil
}
