// Package quota provides lazytext.Scope implementations that watch the
// length ledgers of the holders attached to them.
//
// A Limit refuses growth past a byte budget. A Tally only counts. Both are
// safe for concurrent use by many holders.
package quota
