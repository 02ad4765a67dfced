// Package scriptgen generates the video draft: spoken script, b-roll
// prompts, upload metadata, and script translations.
package scriptgen
