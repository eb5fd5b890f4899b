package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	mcpAdapter "github.com/aretw0/reflex/pkg/adapters/mcp"
	"github.com/aretw0/reflex/pkg/adapters/source"
	"golang.org/x/sync/errgroup"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP runs the interaction loop and exposes it as an MCP server.
// Stdout belongs to the protocol on stdio, so robot output goes to Stderr.
func ServeMCP(ctx context.Context, opts RunOptions, transport, addr string) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	stack, err := buildStack(ctx, cfg, os.Stderr, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	srv := mcpAdapter.NewServer(stack.Engine,
		mcpAdapter.WithSource(stack.Source),
		mcpAdapter.WithLogger(logger),
	)

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
			return nil
		}
		return err
	})

	switch transport {
	case TransportStdio, "":
		g.Go(func() error {
			defer cancel()
			logger.Info("Starting Reflex MCP Server (Stdio)")
			return srv.ServeStdio()
		})
	case TransportSSE:
		g.Go(func() error {
			defer cancel()
			return srv.ServeSSE(gctx, addr)
		})
	default:
		cancel()
		_ = g.Wait()
		return fmt.Errorf("unknown transport: %s (supported: %s, %s)", transport, TransportStdio, TransportSSE)
	}

	return handleExecutionError(g.Wait())
}
