// Package textutil provides text normalization helpers shared by topic
// deduplication and artifact naming.
package textutil
