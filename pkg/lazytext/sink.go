package lazytext

import (
	"io"
	"math"
)

// AppendableSink is the fast path for holder output: strings.Builder,
// bytes.Buffer and bufio.Writer all qualify. Any io.Writer is accepted by
// WriteTo; sinks that also implement Grow are pre-sized from the minimum
// length first.
type AppendableSink interface {
	io.Writer
	io.StringWriter
}

type grower interface {
	Grow(n int)
}

// presize reserves room for n bytes in w when w supports it, capped by the
// global MaxPresize.
func presize(w io.Writer, n int64) {
	presizeCapped(w, n, int64(GetGlobalConfig().MaxPresize))
}

// presizeCapped is presize with an explicit cap.
func presizeCapped(w io.Writer, n, limit int64) {
	g, ok := w.(grower)
	if !ok || n <= 0 {
		return
	}
	if n > limit {
		n = limit
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if n > 0 {
		g.Grow(int(n))
	}
}

// WriteAll appends every holder to w in order and returns the total number
// of bytes written.
func WriteAll(w io.Writer, holders ...Holder) (int64, error) {
	var min int64
	for _, h := range holders {
		min = saturatingAdd(min, h.MinLength())
	}
	presize(w, min)

	var total int64
	for i, h := range holders {
		n, err := h.WriteTo(w)
		total += n
		if err != nil {
			return total, WithContext(err, "write", map[string]interface{}{"holder": i})
		}
	}
	return total, nil
}
