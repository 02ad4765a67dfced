// Package broll generates the still frames behind each video, with
// solid-color fallbacks when the image API is unavailable.
package broll
