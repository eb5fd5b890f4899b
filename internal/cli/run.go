package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/reflex"
	"github.com/aretw0/reflex/internal/config"
	"github.com/aretw0/reflex/internal/presentation/tui"
	httpAdapter "github.com/aretw0/reflex/pkg/adapters/http"
	"github.com/aretw0/reflex/pkg/adapters/source"
	"golang.org/x/sync/errgroup"
)

// RunOptions contains all the configuration for the run command.
// Non-empty fields override the matching config file keys.
type RunOptions struct {
	ConfigPath string
	RulesFile  string
	RulesURL   string
	HTTPAddr   string
	LogLevel   string
	Headless   bool
	Quiet      bool
	Language   string
}

// IO bundles the streams used by the console.
type IO struct {
	In  io.Reader
	Out io.Writer
}

// LoadConfig reads the config file and applies flag overrides.
func LoadConfig(opts RunOptions) (config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if opts.RulesFile != "" {
		cfg.Rules.File = opts.RulesFile
		cfg.Rules.URL = ""
	}
	if opts.RulesURL != "" {
		cfg.Rules.URL = opts.RulesURL
		cfg.Rules.File = ""
	}
	if opts.HTTPAddr != "" {
		cfg.HTTP.Addr = opts.HTTPAddr
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// Run starts the interaction loop with every configured adapter and blocks
// until ctx is cancelled, the console session ends, or a component fails.
func Run(ctx context.Context, opts RunOptions, stdio IO) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	stack, err := buildStack(ctx, cfg, stdio.Out, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	if !opts.Quiet {
		tui.PrintBanner(stdio.Out, reflex.Version)
		printSystemMessage(stdio.Out, "Loaded %d rules (revision %s).", len(stack.Engine.Rules()), stack.Engine.Revision())
	}
	if _, err := reflex.Validate(stack.Engine.RuleText()); err != nil {
		logger.Warn("Some rules were skipped", "err", err)
	}

	lease, err := stack.acquireLease(ctx, logger)
	if err != nil {
		return handleExecutionError(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if lease != nil {
		defer lease.Release(context.Background())
		g.Go(func() error {
			return lease.Keep(gctx)
		})
	}

	g.Go(func() error {
		return stack.Engine.Run(gctx)
	})

	g.Go(func() error {
		err := source.Follow(gctx, stack.Source, stack.Engine, logger)
		if errors.Is(err, source.ErrNotWatchable) || errors.Is(err, source.ErrWatchDisabled) {
			logger.Debug("Rule source is static", "reason", err)
			return nil
		}
		return err
	})

	if cfg.HTTP.Addr != "" {
		api := httpAdapter.NewServer(stack.Engine,
			httpAdapter.WithSource(stack.Source),
			httpAdapter.WithGatherer(stack.Gatherer),
			httpAdapter.WithStreams(stack.Streams),
			httpAdapter.WithLogger(logger),
		)
		g.Go(func() error {
			return serveHTTP(gctx, cfg.HTTP.Addr, api.Handler(), logger)
		})
	}

	if !opts.Headless {
		runner := reflex.NewRunner()
		runner.Input = stdio.In
		runner.Output = stdio.Out
		runner.Headless = !isTerminal(stdio.In)
		if opts.Language != "" {
			runner.Language = opts.Language
		}
		g.Go(func() error {
			defer cancel()
			return runner.Run(gctx, stack.Engine)
		})
	}

	err = handleExecutionError(g.Wait())
	if !opts.Quiet {
		printSystemMessage(stdio.Out, "Stopped.")
	}
	return err
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}
