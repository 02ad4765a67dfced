// Package research gathers live search snippets for a topic so scripts stay
// grounded in real facts.
package research
