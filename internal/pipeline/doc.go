// Package pipeline coordinates the full topic to published video run: topic
// selection, the shared draft phase, per-language production, and upload.
package pipeline
