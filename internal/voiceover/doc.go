// Package voiceover synthesizes narration audio through an
// ElevenLabs-compatible text-to-speech API.
package voiceover
