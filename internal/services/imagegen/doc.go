// Package imagegen provides a client for Gemini-compatible image generation
// APIs, used for b-roll frames and thumbnails.
package imagegen
