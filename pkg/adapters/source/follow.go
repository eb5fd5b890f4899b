package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/pkg/ports"
)

// Reloader receives new rule text. reflex.Engine implements it.
type Reloader interface {
	Reload(text string) error
}

// ErrNotWatchable is returned by Follow for sources without change detection.
var ErrNotWatchable = errors.New("source does not support watching")

// Follow reloads target every time src signals a change, until ctx is done.
// Load failures keep the current rules. Unchanged text is not reloaded.
func Follow(ctx context.Context, src ports.RuleSource, target Reloader, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	w, ok := src.(ports.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	ch, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch rules: %w", err)
	}

	var last string
	if text, err := src.Load(ctx); err == nil {
		last = text
	}

	for range ch {
		text, err := src.Load(ctx)
		if err != nil {
			logger.Warn("Rule reload failed, keeping current rules", "err", err)
			continue
		}
		if text == last {
			continue
		}
		last = text

		if err := target.Reload(text); err != nil {
			logger.Warn("Rules reloaded with skipped blocks", "err", err)
			continue
		}
		logger.Info("Rules reloaded from source")
	}
	return nil
}
