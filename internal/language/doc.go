// Package language normalizes the language variant codes used across the
// pipeline: configuration lists, voice lookups, whisper invocations, and
// upload caption tracks all funnel through the same ISO 639-1 mapping.
package language
