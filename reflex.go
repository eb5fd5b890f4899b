package reflex

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/reflex/internal/compiler"
	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/internal/runtime"
	"github.com/aretw0/reflex/pkg/adapters/memory"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/ports"
	"github.com/aretw0/reflex/pkg/registry"
)

// listener is implemented by capabilities that track whether speech
// recognition is in progress, such as skills.ASR.
type listener interface {
	SetListening(bool)
}

// Engine is the high-level entry point for the Reflex library.
// It owns the interaction loop and routes robot events into Memory.
type Engine struct {
	loop     *runtime.Loop
	memory   ports.Memory
	registry *registry.Registry
	parser   *compiler.Parser
	logger   *slog.Logger

	hooks       domain.LifecycleHooks
	interval    time.Duration
	dispatcher  runtime.Dispatcher
	asrReceiver string
}

var _ ports.Controller = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithMemory replaces the default in-process state store.
func WithMemory(m ports.Memory) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithRegistry injects a pre-populated capability registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithCapability registers a single capability under name.
func WithCapability(name string, c registry.Capability) Option {
	return func(e *Engine) {
		if e.registry == nil {
			e.registry = registry.NewRegistry()
		}
		e.registry.Register(name, c)
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithInterval sets the pause between two ticks (default 200ms).
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithSynchronousActions runs every matched rule on the loop goroutine.
// Mostly useful in tests and batch tools.
func WithSynchronousActions() Option {
	return func(e *Engine) {
		e.dispatcher = runtime.Inline
	}
}

// WithAsrCapability names the capability whose listening flag is reset on ASR results (default "ASR").
func WithAsrCapability(name string) Option {
	return func(e *Engine) {
		e.asrReceiver = name
	}
}

// New creates an idle engine holding the given rule text.
// Nothing is parsed or evaluated until Start, Run or Tick.
func New(rules string, opts ...Option) *Engine {
	e := &Engine{asrReceiver: "ASR"}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.memory == nil {
		e.memory = memory.NewStore()
	}
	if e.registry == nil {
		e.registry = registry.NewRegistry()
	}
	e.parser = compiler.NewParser(compiler.WithLogger(e.logger))

	loopOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithInterval(e.interval),
	}
	if e.dispatcher != nil {
		loopOpts = append(loopOpts, runtime.WithDispatcher(e.dispatcher))
	}

	env := runtime.Env{Memory: e.memory, Registry: e.registry}
	e.loop = runtime.NewLoop(rules, env, loopOpts...)
	return e
}

// Start initializes the interaction state and runs the loop in the background.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.prepare(ctx); err != nil {
		return err
	}
	return e.loop.Start(ctx)
}

// Run is Start that blocks until ctx is done or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.prepare(ctx); err != nil {
		return err
	}
	return e.loop.Run(ctx)
}

func (e *Engine) prepare(ctx context.Context) error {
	if e.loop.Running() {
		return domain.ErrAlreadyRunning
	}
	return e.memory.SetStateParam(ctx, domain.ParamInteractionState, domain.String(domain.InteractionActive))
}

// Stop halts a running loop and waits for it to exit.
func (e *Engine) Stop() {
	e.loop.Stop()
}

// Tick runs a single evaluation pass on the caller's goroutine.
// On an idle engine non-speech actions run inline as well.
func (e *Engine) Tick(ctx context.Context) error {
	return e.loop.Tick(ctx)
}

// Reload replaces the rule text. The running loop swaps rule sets on its next tick.
// The returned error lists rule blocks that will be skipped; the reload happens regardless.
func (e *Engine) Reload(text string) error {
	_, err := e.parser.Parse(text)
	e.loop.Reload(text)
	return err
}

// Rules returns the rule set currently being evaluated.
func (e *Engine) Rules() domain.RuleSet { return e.loop.Rules() }

// RuleText returns the rule text held for the next reload.
func (e *Engine) RuleText() string { return e.loop.RuleText() }

// Revision identifies the running rule set. It changes on every swap.
func (e *Engine) Revision() string { return e.loop.Revision() }

// Running reports whether the loop is active.
func (e *Engine) Running() bool { return e.loop.Running() }

// Memory exposes the state store.
func (e *Engine) Memory() ports.Memory { return e.memory }

// Registry exposes the capability registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// OnWakeupWord marks the interaction as active. It is ignored while speech
// recognition is already in progress.
func (e *Engine) OnWakeupWord(ctx context.Context) error {
	if e.listening(ctx) {
		e.logger.Debug("Wakeup word ignored while listening")
		return nil
	}
	return e.memory.SetStateParam(ctx, domain.ParamInteractionState, domain.String(domain.InteractionActive))
}

// OnAsrResult records a recognized utterance. The listening flag of the ASR
// capability is always cleared; blank results leave Memory untouched.
func (e *Engine) OnAsrResult(ctx context.Context, text, language string) error {
	if c, ok := e.registry.Lookup(e.asrReceiver); ok {
		if l, ok := c.(listener); ok {
			l.SetListening(false)
		}
	}
	if text == "" {
		return nil
	}

	e.logger.Debug("ASR result received", "text", text, "language", language)
	params := []struct {
		name  string
		value string
	}{
		{domain.ParamLastAsrResult, text},
		{domain.ParamAsrLanguage, language},
		{domain.ParamInteractionState, domain.InteractionAsrReceived},
	}
	for _, p := range params {
		if err := e.memory.SetStateParam(ctx, p.name, domain.String(p.value)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) listening(ctx context.Context) bool {
	if _, ok := e.registry.Lookup(e.asrReceiver); !ok {
		return false
	}
	v, err := e.registry.Invoke(ctx, e.asrReceiver, "isListening", nil)
	return err == nil && v.Truthy()
}

// Validate parses text and returns the rules that would run together with
// every skipped block.
func Validate(text string) (domain.RuleSet, error) {
	return compiler.NewParser().Parse(text)
}
