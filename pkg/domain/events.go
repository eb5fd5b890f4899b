package domain

import (
	"context"
	"time"
)

// TickEvent summarizes one pass of the interaction loop.
type TickEvent struct {
	Timestamp time.Time
	Duration  time.Duration
	Evaluated int   // rules whose condition was evaluated
	Matched   int   // rules whose condition held
	Dropped   int   // matched rules whose actions found the foreground queue full
	Err       error // error that aborted the pass, if any
}

// RuleEvent reports a matched rule and where its actions were sent.
type RuleEvent struct {
	Index       int
	Rule        Rule
	Synchronous bool // true when actions ran on the loop goroutine
}

// ReloadEvent reports a rule set swap.
type ReloadEvent struct {
	Revision string
	Rules    int
	Errors   int // rule blocks dropped while parsing
	Diff     RuleDiff
}

// ActionEvent reports a finished action evaluation.
type ActionEvent struct {
	Expr     Expression
	Duration time.Duration
	Err      error
}

// LifecycleHooks defines callbacks for loop observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnTick      func(context.Context, *TickEvent)
	OnRuleMatch func(context.Context, *RuleEvent)
	OnAction    func(context.Context, *ActionEvent)
	OnReload    func(context.Context, *ReloadEvent)

	// OnActionsDropped fires when a matched rule's actions could not be queued.
	OnActionsDropped func(context.Context, *RuleEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTick:      chain(h.OnTick, other.OnTick),
		OnRuleMatch: chain(h.OnRuleMatch, other.OnRuleMatch),
		OnAction:    chain(h.OnAction, other.OnAction),
		OnReload:    chain(h.OnReload, other.OnReload),

		OnActionsDropped: chain(h.OnActionsDropped, other.OnActionsDropped),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
