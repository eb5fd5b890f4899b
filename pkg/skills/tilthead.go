package skills

import (
	"context"

	"github.com/aretw0/reflex/internal/dto"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// TiltHead moves the head between two configured angles.
type TiltHead struct {
	base
	opts dto.TiltOptions
}

// NewTiltHead creates the TiltHead skill. Defaults: up 45, down 0.
func NewTiltHead(deps Deps, options map[string]any) (*TiltHead, error) {
	b, err := newBase("TiltHead", deps, true)
	if err != nil {
		return nil, err
	}
	opts := dto.TiltOptions{Up: 45, Down: 0}
	if err := dto.Decode(options, &opts); err != nil {
		return nil, err
	}

	s := &TiltHead{base: b, opts: opts}
	s.ops = registry.Operations{
		"up":   noArgs(func(ctx context.Context) (domain.Value, error) { return s.tilt(ctx, s.opts.Up) }),
		"down": noArgs(func(ctx context.Context) (domain.Value, error) { return s.tilt(ctx, s.opts.Down) }),
	}
	return s, nil
}

func (s *TiltHead) tilt(ctx context.Context, degrees int) (domain.Value, error) {
	return domain.Nothing, s.deps.Robot.TiltHead(ctx, degrees)
}
