package ports

import (
	"context"

	"github.com/aretw0/reflex/pkg/domain"
)

// Memory is the timestamped state store read and written by rules and event handlers.
//
// Every SetStateParam appends exactly one history entry and overwrites the current
// value. A name that was never set has no history. Absent names are reported through
// the boolean results, never through errors; errors are reserved for backend failures.
type Memory interface {
	// SetStateParam upserts the current value and appends a history entry stamped now.
	SetStateParam(ctx context.Context, name string, v domain.Value) error

	// GetStateParam returns the current value of name.
	GetStateParam(ctx context.Context, name string) (domain.Value, bool, error)

	// GetStateParamHistory returns the entries of name inside the window, oldest first.
	// The boolean is false when name has never been set.
	GetStateParamHistory(ctx context.Context, name string, w domain.Window) ([]domain.StateEntry, bool, error)

	// GetPreviousStateParam returns the second-most-recent value of name.
	// It reports false when fewer than two entries exist.
	GetPreviousStateParam(ctx context.Context, name string) (domain.Value, bool, error)

	// GetState returns a snapshot of every current value.
	GetState(ctx context.Context) (map[string]domain.Value, error)

	// GetStateHistory returns a snapshot of every history, filtered by the window.
	GetStateHistory(ctx context.Context, w domain.Window) (map[string][]domain.StateEntry, error)

	// ClearHistory drops all history while keeping current values.
	ClearHistory(ctx context.Context) error

	// Reset drops current values and history.
	Reset(ctx context.Context) error
}
