package lazytext

import (
	"io"
	"strings"
)

// Literal is a holder whose content is known at construction.
type Literal struct {
	Core
	text string
}

// NewLiteral wraps s. The result is resolved from the start.
func NewLiteral(s string) *Literal {
	l := &Literal{text: s}
	n := int64(len(s))
	// Exact bounds always validate.
	_ = l.init(l, "literal", Exactly(n))
	l.resolveLiteral(s)
	return l
}

func (l *Literal) Resolve() (string, error) {
	return l.text, nil
}

func (l *Literal) String() string {
	return l.text
}

func (l *Literal) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, l.text)
	return int64(n), err
}

func (l *Literal) Open() (io.Reader, error) {
	return strings.NewReader(l.text), nil
}
