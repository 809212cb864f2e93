package lazytext

// Fragment is one entry of a flattened sequence: literal text, or a holder
// that has not resolved yet.
type Fragment struct {
	Text   string
	Holder Holder
}

// IsText reports whether the fragment is literal text.
func (f Fragment) IsText() bool {
	return f.Holder == nil
}

// MinLength is the text length, or the holder's current minimum.
func (f Fragment) MinLength() int64 {
	if f.Holder == nil {
		return int64(len(f.Text))
	}
	return f.Holder.MinLength()
}

// Fragments is an ordered list of fragments.
type Fragments []Fragment

// MinLength sums the minimum lengths of all fragments.
func (fs Fragments) MinLength() int64 {
	var total int64
	for _, f := range fs {
		total = saturatingAdd(total, f.MinLength())
	}
	return total
}

// Texts returns the literal text of each fragment. Opaque holders
// contribute an empty string.
func (fs Fragments) Texts() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Text
	}
	return out
}

// Opaque counts the fragments that are still unresolved holders.
func (fs Fragments) Opaque() int {
	n := 0
	for _, f := range fs {
		if f.Holder != nil {
			n++
		}
	}
	return n
}

// Flatten returns the sequence as a linear fragment list. Nested sequences
// of the same kind are expanded in place, resolved holders become text and
// known-empty entries are skipped. Anything else stays opaque.
func (s *Sequence) Flatten() Fragments {
	if s.IsResolved() {
		v, _ := s.Resolve()
		if v == "" {
			return Fragments{}
		}
		return Fragments{{Text: v}}
	}
	frags, _ := s.flatten(s.kind)
	return frags
}

// flatten also returns the cause of the last nested error flag it saw.
func (s *Sequence) flatten(kind Kind) (Fragments, error) {
	var out Fragments
	var nestedErr error
	segs, _ := s.snapshot()
	flattenInto(&out, &nestedErr, segs, kind, s)
	return out, nestedErr
}

func flattenInto(out *Fragments, nestedErr *error, segs Fragments, kind Kind, root *Sequence) {
	for _, f := range segs {
		if f.Holder == nil {
			if f.Text != "" {
				*out = append(*out, f)
			}
			continue
		}

		h := f.Holder
		if h.HasError() {
			*nestedErr = nestedCause(h)
		}

		if h.IsResolved() {
			if v, _ := h.Resolve(); v != "" {
				*out = append(*out, Fragment{Text: v})
			}
			continue
		}

		if nested, ok := h.(*Sequence); ok && nested != root && nested.kind == kind {
			inner, sealed := nested.snapshot()
			if !sealed {
				flattenInto(out, nestedErr, inner, kind, root)
				continue
			}
		}

		*out = append(*out, Fragment{Holder: h})
	}
}
