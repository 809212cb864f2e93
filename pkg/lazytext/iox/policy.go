package iox

import (
	"bytes"
	"fmt"
	"strings"
)

// Outcome is the decision an ErrorPolicy makes about a failed read.
type Outcome int

const (
	// Escalate returns the failure to the caller as-is.
	Escalate Outcome = iota
	// Truncate keeps whatever was copied before the failure.
	Truncate
	// Discard drops everything copied and yields empty content.
	Discard
	// AppendMessage keeps the copied bytes and appends err.Error().
	AppendMessage
	// AppendTrace keeps the copied bytes and appends the full unwrap chain.
	AppendTrace
)

func (o Outcome) String() string {
	switch o {
	case Escalate:
		return "escalate"
	case Truncate:
		return "truncate"
	case Discard:
		return "discard"
	case AppendMessage:
		return "message"
	case AppendTrace:
		return "trace"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// ParseOutcome parses an outcome from its String form.
func ParseOutcome(name string) (Outcome, error) {
	switch name {
	case "escalate":
		return Escalate, nil
	case "truncate":
		return Truncate, nil
	case "discard":
		return Discard, nil
	case "message":
		return AppendMessage, nil
	case "trace":
		return AppendTrace, nil
	default:
		return Escalate, fmt.Errorf("unknown error outcome: %q", name)
	}
}

// ErrorPolicy picks an Outcome for a read or write failure. A nil policy
// escalates.
type ErrorPolicy func(err error) Outcome

// Always returns a policy that answers every failure with o.
func Always(o Outcome) ErrorPolicy {
	return func(error) Outcome { return o }
}

// Result describes a finished copy. N is the number of bytes the
// destination gained, after the outcome was applied. Cause is set when a
// failure was absorbed by a non-escalating outcome; the caller is expected
// to record it as an error state.
type Result struct {
	N       int64
	Outcome Outcome
	Cause   error
}

// Recovered reports whether the copy hit a failure that the policy absorbed.
func (r Result) Recovered() bool {
	return r.Cause != nil
}

// settle applies the policy's outcome to dst, whose contribution from the
// current copy starts at offset start.
func settle(dst *bytes.Buffer, start int, cause error, policy ErrorPolicy) (Result, error) {
	outcome := Escalate
	if policy != nil {
		outcome = policy(cause)
	}

	switch outcome {
	case Truncate:
	case Discard:
		dst.Truncate(start)
	case AppendMessage:
		dst.WriteString(cause.Error())
	case AppendTrace:
		dst.WriteString(Trace(cause))
	default:
		return Result{N: int64(dst.Len() - start), Outcome: Escalate, Cause: cause}, cause
	}

	return Result{N: int64(dst.Len() - start), Outcome: outcome, Cause: cause}, nil
}

// Trace renders err and every error it wraps, one per line, indented by
// depth. Joined errors are expanded in order.
func Trace(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	writeTrace(&b, err, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func writeTrace(b *strings.Builder, err error, depth int) {
	fmt.Fprintf(b, "%s%T: %s\n", strings.Repeat("  ", depth), err, err.Error())

	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if inner != nil {
				writeTrace(b, inner, depth+1)
			}
		}
	case interface{ Unwrap() error }:
		if inner := x.Unwrap(); inner != nil {
			writeTrace(b, inner, depth+1)
		}
	}
}
