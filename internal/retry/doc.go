// Package retry wraps fallible external calls with bounded
// exponential-backoff retry and jitter. Policies are explicit values rather
// than implicit wrappers so they can be inspected and unit-tested apart from
// the operations they guard.
package retry
