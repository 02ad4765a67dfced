// Package topics discovers video topic candidates from reddit, RSS feeds,
// Google trends, and hand-curated lists, then merges them into a single
// ranked shortlist.
package topics
