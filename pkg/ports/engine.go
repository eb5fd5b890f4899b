package ports

import (
	"context"

	"github.com/aretw0/reflex/pkg/domain"
)

// Controller is the surface control adapters (HTTP, MCP) drive.
// It is implemented by the root reflex.Engine.
type Controller interface {
	// Rules returns the rule set the loop is currently running.
	Rules() domain.RuleSet

	// RuleText returns the rule text held for the next reload.
	RuleText() string

	// Reload replaces the held rule text. The loop swaps rule sets on its next tick.
	// The returned error reports rule blocks that will be dropped; it does not prevent the reload.
	Reload(text string) error

	// Memory exposes the state store.
	Memory() Memory

	// OnWakeupWord records that the wake word was heard.
	OnWakeupWord(ctx context.Context) error

	// OnAsrResult records a speech recognition result.
	OnAsrResult(ctx context.Context, text, language string) error
}
