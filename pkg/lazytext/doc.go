// Package lazytext assembles text from values that produce their content
// only when it is needed.
//
// A Holder is a value that may eventually become a string. Until it is
// forced it carries a length ledger (a guaranteed minimum and an expected
// length) so callers can size buffers, enforce quotas and rule out
// equality without producing anything.
//
// # Quick Start
//
//	greeting := lazytext.NewLiteral("Hello")
//	name, _ := lazytext.Supply(lazytext.Estimate(16), func() (string, error) {
//	    return lookupName(), nil
//	})
//
//	seq := lazytext.NewSequence()
//	seq.Append(greeting)
//	seq.AppendString(", ")
//	seq.Append(name)
//
//	// Nothing has been produced yet.
//	fmt.Println(seq.MinLength()) // 7
//
//	// Stream without materializing the sequence...
//	seq.WriteTo(os.Stdout)
//
//	// ...or force it into a single string.
//	s, err := seq.Resolve()
//
// # Holder Variants
//
//	NewLiteral(s)               - content known up front
//	Supply(bounds, fn)          - produced by fn on first use
//	SupplyIO(bounds, fn, p)     - written by fn; failures go through policy p
//	Stream(bounds, open, p)     - read from a stream opened on first use
//	NewSequence(opts...)        - ordered literals and holders
//	If(inner, predicate)        - inner content kept or dropped at resolution
//
// Every variant resolves at most once. Concurrent first callers block until
// the first finishes and then share its result.
//
// # Length Ledger
//
// Holders declare Bounds at construction. Lengths only grow, unless the
// error flag is set, and a holder that produces fewer bytes than its
// declared minimum fails with a *ContractError. IO-backed holders whose
// error policy recovers from a failure set the error flag so their ledger
// can shrink to what was actually produced.
//
// # Scopes
//
// A Scope observes the holders attached to it: every add, remove and
// resize is reported before it takes effect, and a scope may refuse it.
// The quota sub-package provides a byte budget and a tally.
//
// # Concurrent Sequences
//
// A KindConcurrent sequence resolves its unresolved holders in parallel on
// an Executor and joins them in their original order, so the output is
// identical to sequential assembly.
//
// # Architecture
//
// The package is organized into several sub-packages:
//
//   - iox: lazily opened streams, the chunked copier and its error policy,
//     compressing writers
//   - quota: Scope implementations
//
// The main package provides holders, sequences, equality, digests,
// pattern composition, the Engine facade, configuration, logging and
// error types.
package lazytext
