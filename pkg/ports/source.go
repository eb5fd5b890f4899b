package ports

import "context"

// RuleSource yields the rule text the interaction loop should run.
// Implementations may read a bundled default, a file or a remote URL.
type RuleSource interface {
	// Load returns the full rule text. On error the caller keeps its current rules.
	Load(ctx context.Context) (string, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying rules change.
	// It abstracts away the specific event details, signaling only that a reload is required.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
