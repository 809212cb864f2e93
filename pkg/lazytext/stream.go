package lazytext

import (
	"bytes"
	"io"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/iox"
)

// StreamBacked is a holder whose content is read from a stream that is
// opened only when the holder resolves.
type StreamBacked struct {
	Core
	open   iox.Opener
	policy iox.ErrorPolicy
}

// Stream returns a holder that reads everything open yields. Failures,
// including a failure to open, go through policy; a nil policy escalates.
func Stream(b Bounds, open iox.Opener, policy iox.ErrorPolicy) (*StreamBacked, error) {
	s := &StreamBacked{open: open, policy: policy}
	if err := s.init(s, "stream", b); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StreamBacked) produce() (string, error) {
	r := iox.NewLazyReader(s.open)
	defer func() {
		if err := r.Close(); err != nil {
			GetLogger().WithField("holder", s.kind).Warn("Closing stream failed: %v", err)
		}
	}()

	var buf bytes.Buffer
	presize(&buf, s.MinLength())
	res, err := iox.Copy(&buf, r, s.policy)
	if err != nil {
		return "", NewProductionError(s.kind, err)
	}
	s.absorb(res)
	return buf.String(), nil
}

func (s *StreamBacked) Resolve() (string, error) {
	return s.resolve(s.produce)
}

func (s *StreamBacked) String() string {
	return stringOrEmpty(s)
}

func (s *StreamBacked) WriteTo(w io.Writer) (int64, error) {
	return writeResolved(s, w)
}

func (s *StreamBacked) Open() (io.Reader, error) {
	return openResolved(s)
}
