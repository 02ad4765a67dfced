// Package llm provides a thin client for OpenRouter-compatible chat
// completion APIs, used for script drafting, translation, and topic
// selection.
package llm
