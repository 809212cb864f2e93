package lazytext

// knownMax is an upper bound on h's length: the actual length once it has
// resolved, MaxLength before.
func knownMax(h Holder) int64 {
	if h.IsLengthKnown() {
		return h.MinLength()
	}
	return MaxLength
}

// boundsExclude reports whether a's guaranteed minimum already rules out
// equality with something at most max bytes long. A holder with its error
// flag set may still shrink, so its minimum proves nothing.
func boundsExclude(a Holder, max int64) bool {
	return !a.HasError() && a.MinLength() > max
}

// Equal compares the content of two holders. When either side's minimum
// exceeds what the other side can hold, the answer is false and neither is
// resolved.
func Equal(a, b Holder) (bool, error) {
	if a == b {
		return true, nil
	}
	if boundsExclude(a, knownMax(b)) || boundsExclude(b, knownMax(a)) {
		return false, nil
	}

	av, err := a.Resolve()
	if err != nil {
		return false, err
	}
	bv, err := b.Resolve()
	if err != nil {
		return false, err
	}
	return av == bv, nil
}

// EqualString compares h's content with s. h is not resolved when its
// minimum is longer than s.
func EqualString(h Holder, s string) (bool, error) {
	if boundsExclude(h, int64(len(s))) {
		return false, nil
	}
	if h.IsLengthKnown() && h.MinLength() != int64(len(s)) {
		return false, nil
	}
	v, err := h.Resolve()
	if err != nil {
		return false, err
	}
	return v == s, nil
}

// StringEquals compares s against h without ever resolving h. It is true
// only if h has already resolved to exactly s.
func StringEquals(s string, h Holder) bool {
	if !h.IsResolved() {
		return false
	}
	v, err := h.Resolve()
	return err == nil && v == s
}
