package lazytext

import (
	"bytes"
	"io"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/iox"
)

// Supplied is a holder backed by a function that runs on first resolution.
type Supplied struct {
	Core
	produce func() (string, error)
}

// Supply returns a holder that calls fn once, when its content is first
// needed. An error from fn fails the resolution.
func Supply(b Bounds, fn func() (string, error)) (*Supplied, error) {
	s := &Supplied{}
	if err := s.init(s, "supplied", b); err != nil {
		return nil, err
	}
	s.produce = func() (string, error) {
		v, err := fn()
		if err != nil {
			return "", NewProductionError(s.kind, err)
		}
		return v, nil
	}
	return s, nil
}

// SupplyIO returns a holder whose content is written by fn. If fn fails,
// policy decides what happens to the bytes already written; any outcome
// other than escalation sets the error flag and keeps the resolution.
func SupplyIO(b Bounds, fn func(w io.Writer) error, policy iox.ErrorPolicy) (*Supplied, error) {
	s := &Supplied{}
	if err := s.init(s, "supplied-io", b); err != nil {
		return nil, err
	}
	s.produce = func() (string, error) {
		var buf bytes.Buffer
		presize(&buf, s.MinLength())
		res, err := iox.Capture(&buf, fn, policy)
		if err != nil {
			return "", NewProductionError(s.kind, err)
		}
		s.absorb(res)
		return buf.String(), nil
	}
	return s, nil
}

func (s *Supplied) Resolve() (string, error) {
	return s.resolve(s.produce)
}

func (s *Supplied) String() string {
	return stringOrEmpty(s)
}

func (s *Supplied) WriteTo(w io.Writer) (int64, error) {
	return writeResolved(s, w)
}

func (s *Supplied) Open() (io.Reader, error) {
	return openResolved(s)
}

// absorb records a failure that the error policy chose not to escalate.
func (c *Core) absorb(res iox.Result) {
	if !res.Recovered() {
		return
	}
	c.MarkError(res.Cause)
	GetLogger().WithFields(Fields{
		"holder":  c.kind,
		"outcome": res.Outcome.String(),
		"length":  res.N,
	}).Warn("Recovered from production failure: %v", res.Cause)
}
