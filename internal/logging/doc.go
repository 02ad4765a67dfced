// Package logging builds the slog loggers used across clipforge and
// standardizes structured field names (unit_id, stage, variant, source) so
// log lines from different components stay queryable.
package logging
