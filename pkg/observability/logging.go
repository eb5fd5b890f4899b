package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/reflex/pkg/domain"
)

// LogHooks returns lifecycle hooks that log loop events at debug level.
// Aborted ticks and failed actions are logged at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTick: func(ctx context.Context, e *domain.TickEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "tick_aborted", "evaluated", e.Evaluated, "matched", e.Matched, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "tick", "evaluated", e.Evaluated, "matched", e.Matched, "duration", e.Duration)
		},
		OnRuleMatch: func(ctx context.Context, e *domain.RuleEvent) {
			logger.DebugContext(ctx, "rule_match", "rule", e.Index, "sync", e.Synchronous)
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "action_failed", "action", e.Expr.String(), "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "action", "action", e.Expr.String(), "duration", e.Duration)
		},
		OnActionsDropped: func(ctx context.Context, e *domain.RuleEvent) {
			logger.WarnContext(ctx, "actions_dropped", "rule", e.Index)
		},
		OnReload: func(ctx context.Context, e *domain.ReloadEvent) {
			logger.InfoContext(ctx, "rules_swapped", "revision", e.Revision, "rules", e.Rules, "skipped", e.Errors,
				"added", len(e.Diff.Added), "removed", len(e.Diff.Removed))
		},
	}
}
