package skills

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

var errNoRobot = errors.New("no robot configured")

// base carries what every robot-backed skill shares.
type base struct {
	name string
	deps Deps
	ops  registry.Operations
}

func (b *base) Name() string { return b.name }

func (b *base) Invoke(ctx context.Context, method string, args []domain.Value) (domain.Value, error) {
	return b.ops.Invoke(ctx, method, args)
}

func newBase(name string, deps Deps, needsRobot bool) (base, error) {
	if needsRobot && deps.Robot == nil {
		return base{}, errNoRobot
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return base{name: name, deps: deps}, nil
}

// noArgs adapts a zero-argument operation.
func noArgs(fn func(ctx context.Context) (domain.Value, error)) registry.OperationFunc {
	return func(ctx context.Context, args []domain.Value) (domain.Value, error) {
		if err := registry.Arity(args, 0); err != nil {
			return domain.Nothing, err
		}
		return fn(ctx)
	}
}

// oneString adapts a single string argument operation.
func oneString(fn func(ctx context.Context, s string) (domain.Value, error)) registry.OperationFunc {
	return func(ctx context.Context, args []domain.Value) (domain.Value, error) {
		if err := registry.Arity(args, 1); err != nil {
			return domain.Nothing, err
		}
		s, err := registry.StringArg(args, 0)
		if err != nil {
			return domain.Nothing, err
		}
		return fn(ctx, s)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
