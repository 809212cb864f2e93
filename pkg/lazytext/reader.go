package lazytext

import (
	"io"
	"strings"
)

// segmentReader reads a sequence segment by segment. A nested holder is
// opened only when the reader reaches it.
type segmentReader struct {
	segs    Fragments
	next    int
	current io.Reader
}

func newSegmentReader(segs Fragments) *segmentReader {
	return &segmentReader{segs: segs}
}

func (r *segmentReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if r.current == nil {
			if r.next >= len(r.segs) {
				return 0, io.EOF
			}
			f := r.segs[r.next]
			r.next++
			if f.Holder == nil {
				r.current = strings.NewReader(f.Text)
			} else {
				src, err := f.Holder.Open()
				if err != nil {
					return 0, WithContext(err, "open", map[string]interface{}{"segment": r.next - 1})
				}
				r.current = src
			}
		}

		n, err := r.current.Read(p)
		if err == io.EOF {
			r.current = nil
			err = nil
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
}
