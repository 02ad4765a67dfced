// Package services defines shared utilities consumed by the stage handlers
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp work unit IDs, stage names, language
//     variants, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     as transient (retryable) or fatal.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
