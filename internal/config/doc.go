// Package config loads, normalizes, and validates clipforge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for API
// keys. The Config type centralizes every knob the CLI and pipeline need;
// settings are always threaded explicitly through constructors so tests can
// supply isolated fixtures.
package config
