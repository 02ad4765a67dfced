// Package state persists per-work-unit stage completion records in SQLite.
//
// A work unit is one topic's end-to-end production attempt. Each stage
// execution leaves a Record (status, output reference, completion time,
// last error) keyed by unit, language variant, and stage name. Records for
// the shared research/draft stages live under the empty variant so every
// language variant resumes from the same draft.
//
// The store is a passive ledger: ordering invariants (a stage may only be
// marked done once its predecessors are done) belong to the stage runner.
package state
