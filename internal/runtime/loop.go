package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/reflex/internal/compiler"
	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/pkg/domain"
)

// DefaultInterval is the pause between two ticks.
const DefaultInterval = 200 * time.Millisecond

// Loop owns the running rule set and evaluates it on a fixed cadence.
//
// Rule text and the reload flag share one mutex, so a reload is observed by
// the loop either entirely or not at all.
type Loop struct {
	env        Env
	parser     *compiler.Parser
	interval   time.Duration
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	dispatcher Dispatcher
	fg         *Foreground
	fgActive   atomic.Bool // fg is draining its queue

	mu       sync.Mutex // guards text, pending and revision
	text     string
	pending  bool
	revision string
	rules    atomic.Pointer[domain.RuleSet]

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures the Loop.
type Option func(*Loop)

// WithInterval sets the pause between ticks.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLogger sets the logger for the loop, its parser and its foreground executor.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(l *Loop) {
		l.hooks = l.hooks.Merge(hooks)
	}
}

// WithDispatcher replaces the foreground executor for non-speech rules.
func WithDispatcher(d Dispatcher) Option {
	return func(l *Loop) {
		l.dispatcher = d
	}
}

// NewLoop creates an idle loop holding text. The text is parsed on Start or on the first Tick.
func NewLoop(text string, env Env, opts ...Option) *Loop {
	l := &Loop{
		env:      env,
		interval: DefaultInterval,
		logger:   logging.NewNop(),
		text:     text,
		pending:  true,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.parser = compiler.NewParser(compiler.WithLogger(l.logger))
	if l.dispatcher == nil {
		l.fg = NewForeground(defaultForegroundBuffer, l.logger)
		l.dispatcher = l.fg
	}

	empty := domain.RuleSet{}
	l.rules.Store(&empty)
	return l
}

// Reload replaces the held rule text. The running rule set is swapped at the
// start of the next tick.
func (l *Loop) Reload(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = text
	l.pending = true
}

// RuleText returns the currently held rule text.
func (l *Loop) RuleText() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Rules returns the rule set the loop last swapped in.
func (l *Loop) Rules() domain.RuleSet {
	return *l.rules.Load()
}

// Revision identifies the last swapped rule set. Empty before the first parse.
func (l *Loop) Revision() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.revision
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	return l.cancel != nil
}

// Start parses the held text and runs the loop in the background until ctx is
// done or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	runCtx, done, err := l.begin(ctx)
	if err != nil {
		return err
	}
	go l.run(runCtx, done)
	return nil
}

// Run is Start that blocks until the loop stops.
func (l *Loop) Run(ctx context.Context) error {
	runCtx, done, err := l.begin(ctx)
	if err != nil {
		return err
	}
	l.run(runCtx, done)
	return nil
}

// Stop cancels a running loop and waits for it to exit. It is a no-op on an idle loop.
func (l *Loop) Stop() {
	l.runMu.Lock()
	cancel, done := l.cancel, l.done
	l.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Loop) begin(ctx context.Context) (context.Context, chan struct{}, error) {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.cancel != nil {
		return nil, nil, domain.ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	l.mu.Lock()
	l.pending = true
	l.mu.Unlock()
	l.refresh(runCtx)

	if l.fg != nil {
		if n := l.fg.discard(); n > 0 {
			l.logger.Debug("Discarded foreground jobs from a previous run", "discarded", n)
		}
	}
	return runCtx, l.done, nil
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		l.fgActive.Store(false)
		l.runMu.Lock()
		l.cancel()
		l.cancel = nil
		l.runMu.Unlock()
		close(done)
	}()

	if l.fg != nil {
		l.fgActive.Store(true)
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.fg.Run(ctx)
		}()
	}

	l.logger.Info("Interaction loop started", "interval", l.interval, "rules", len(l.Rules()))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Interaction loop stopped")
			return
		case <-timer.C:
		}

		_ = l.Tick(ctx)
		timer.Reset(l.interval)
	}
}

// Tick runs one evaluation pass: apply a pending reload, then evaluate every
// rule in order. Matched rules that speak run inline; the rest are dispatched.
// While the built-in foreground executor is not running, dispatched rules run
// inline too. The first failure aborts the remaining rules of this pass and is returned.
func (l *Loop) Tick(ctx context.Context) error {
	rules := l.refresh(ctx)

	ev := &domain.TickEvent{Timestamp: time.Now()}
	for i, rule := range rules {
		ev.Evaluated++
		cond, err := Evaluate(ctx, rule.Condition, l.env)
		if err != nil {
			ev.Err = fmt.Errorf("rule %d condition: %w", i, err)
			break
		}
		if !cond.Truthy() {
			continue
		}
		ev.Matched++

		speaks := rule.Speaks()
		if l.hooks.OnRuleMatch != nil {
			l.hooks.OnRuleMatch(ctx, &domain.RuleEvent{Index: i, Rule: rule, Synchronous: speaks})
		}

		if speaks {
			if err := l.runActions(ctx, rule.Actions); err != nil {
				ev.Err = fmt.Errorf("rule %d actions: %w", i, err)
				break
			}
			continue
		}

		index, actions := i, rule.Actions
		accepted := l.dispatch(ctx, func(ctx context.Context) {
			if err := l.runActions(ctx, actions); err != nil {
				l.logger.Error("Foreground actions failed", "rule", index, "err", err)
			}
		})
		if !accepted {
			ev.Dropped++
			l.logger.Warn("Foreground queue full, dropping actions", "rule", index, "capacity", cap(l.fg.jobs))
			if l.hooks.OnActionsDropped != nil {
				l.hooks.OnActionsDropped(ctx, &domain.RuleEvent{Index: i, Rule: rule})
			}
		}
	}

	ev.Duration = time.Since(ev.Timestamp)
	if ev.Err != nil {
		l.logger.Warn("Tick aborted", "evaluated", ev.Evaluated, "err", ev.Err)
	}
	if l.hooks.OnTick != nil {
		l.hooks.OnTick(ctx, ev)
	}
	return ev.Err
}

// dispatch hands job off the loop goroutine and reports whether it was accepted.
func (l *Loop) dispatch(ctx context.Context, job Job) bool {
	switch {
	case l.fg == nil:
		l.dispatcher.Dispatch(ctx, job)
		return true
	case !l.fgActive.Load():
		job(ctx)
		return true
	default:
		return l.fg.Offer(job)
	}
}

// runActions evaluates actions in order and stops at the first failure.
func (l *Loop) runActions(ctx context.Context, actions []domain.Expression) error {
	for _, action := range actions {
		start := time.Now()
		_, err := Evaluate(ctx, action, l.env)
		if l.hooks.OnAction != nil {
			l.hooks.OnAction(ctx, &domain.ActionEvent{Expr: action, Duration: time.Since(start), Err: err})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// refresh swaps in a freshly parsed rule set when a reload is pending and
// returns the rule set to evaluate.
func (l *Loop) refresh(ctx context.Context) domain.RuleSet {
	l.mu.Lock()
	if !l.pending {
		l.mu.Unlock()
		return l.Rules()
	}

	rules, err := l.parser.Parse(l.text)
	previous := l.rules.Swap(&rules)
	l.pending = false
	l.revision = uuid.NewString()
	ev := &domain.ReloadEvent{Revision: l.revision, Rules: len(rules), Errors: countErrors(err)}
	ev.Diff = domain.DiffRules(*previous, rules)
	l.mu.Unlock()

	l.logger.Info("Rules reloaded", "revision", ev.Revision, "rules", ev.Rules, "skipped", ev.Errors,
		"added", len(ev.Diff.Added), "removed", len(ev.Diff.Removed))
	if l.hooks.OnReload != nil {
		l.hooks.OnReload(ctx, ev)
	}
	return rules
}

func countErrors(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
