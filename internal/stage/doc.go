// Package stage defines the pipeline stage contract and the runner that
// executes stages in order with persisted, resumable state.
package stage
