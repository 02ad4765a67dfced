// Package captions turns voiceover audio into word level timestamps via the
// whisper CLI and renders them as SRT and ASS subtitle documents.
package captions
