// Package notifications pushes pipeline milestones to an ntfy topic.
package notifications
