package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/reflex"
	"github.com/aretw0/reflex/internal/config"
	"github.com/aretw0/reflex/pkg/adapters/console"
	httpAdapter "github.com/aretw0/reflex/pkg/adapters/http"
	"github.com/aretw0/reflex/pkg/adapters/memory"
	"github.com/aretw0/reflex/pkg/adapters/redis"
	"github.com/aretw0/reflex/pkg/adapters/source"
	"github.com/aretw0/reflex/pkg/observability"
	"github.com/aretw0/reflex/pkg/ports"
	"github.com/aretw0/reflex/pkg/registry"
	"github.com/aretw0/reflex/pkg/skills"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Stack is an engine wired with the adapters selected by a Config.
type Stack struct {
	Engine   *reflex.Engine
	Source   ports.RuleSource
	Robot    *console.Robot
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Streams  *httpAdapter.StreamManager
	Locker   ports.Locker // nil unless memory is shared

	closers []func() error
}

// Close releases backend connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// buildStack initializes memory, rules, robot, skills and metrics from cfg.
// Robot output goes to out.
func buildStack(ctx context.Context, cfg config.Config, out io.Writer, logger *slog.Logger) (*Stack, error) {
	s := &Stack{}

	// 1. Memory
	mem, err := createMemory(ctx, cfg.Memory, s)
	if err != nil {
		return nil, err
	}

	// 2. Rules
	s.Source = createSource(cfg.Rules, logger)
	text, err := s.Source.Load(ctx)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	// 3. Robot & Skills
	s.Robot = console.New(out)
	reg := registry.NewRegistry()
	deps := skills.Deps{Robot: s.Robot, Memory: mem, Logger: logger}
	if err := skills.RegisterAll(reg, deps, cfg.Skills); err != nil {
		_ = s.Close()
		return nil, err
	}

	// 4. Observability
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.Metrics, err = observability.NewMetrics(promReg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Gatherer = promReg
	s.Streams = httpAdapter.NewStreamManager()

	s.Engine = reflex.New(text,
		reflex.WithMemory(mem),
		reflex.WithRegistry(reg),
		reflex.WithLogger(logger),
		reflex.WithInterval(cfg.Loop.Interval),
		reflex.WithLifecycleHooks(s.Metrics.Hooks()),
		reflex.WithLifecycleHooks(observability.LogHooks(logger)),
		reflex.WithLifecycleHooks(s.Streams.Hooks()),
	)
	return s, nil
}

// LeaseTTL bounds how long a crashed engine keeps a standby waiting.
const LeaseTTL = 15 * time.Second

// acquireLease blocks until this process may drive the shared memory.
// It returns a nil lease when memory is not shared.
func (s *Stack) acquireLease(ctx context.Context, logger *slog.Logger) (ports.Lease, error) {
	if s.Locker == nil {
		return nil, nil
	}
	logger.Info("Waiting for engine lease")
	lease, err := s.Locker.Acquire(ctx, "engine", LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire engine lease: %w", err)
	}
	logger.Info("Engine lease acquired")
	return lease, nil
}

func createMemory(ctx context.Context, cfg config.MemoryConfig, s *Stack) (ports.Memory, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		r := cfg.Redis
		m := redis.New(r.Addr, r.Password, r.DB, redis.WithPrefix(r.Prefix), redis.WithTTL(r.TTL))
		if err := m.Ping(ctx); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", r.Addr, err)
		}
		s.closers = append(s.closers, m.Close)
		s.Locker = m.Locker()
		return m, nil
	case config.BackendMemory, "":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

// createSource picks the rule source: a local file, a URL, or the embedded fallback.
func createSource(cfg config.RulesConfig, logger *slog.Logger) ports.RuleSource {
	switch {
	case cfg.File != "":
		return source.NewFileWatcher(cfg.File, source.WithFileLogger(logger))
	case cfg.URL != "":
		return source.NewHTTPFetcher(cfg.URL,
			source.WithPollInterval(cfg.Poll),
			source.WithHTTPLogger(logger),
		)
	default:
		return source.Default()
	}
}
