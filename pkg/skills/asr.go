package skills

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// ASR triggers speech recognition. Results are delivered to the engine as
// events, which reset the listening flag through SetListening.
type ASR struct {
	base
	listening atomic.Bool
}

// NewASR creates the ASR skill.
func NewASR(deps Deps) *ASR {
	b, _ := newBase("ASR", deps, false)
	s := &ASR{base: b}
	s.ops = registry.Operations{
		"listen":        noArgs(s.listen),
		"stopListening": noArgs(s.stopListening),
		"isListening": noArgs(func(context.Context) (domain.Value, error) {
			return domain.Bool(s.listening.Load()), nil
		}),
	}
	return s
}

// SetListening updates the listening flag without touching the robot.
func (s *ASR) SetListening(listening bool) {
	s.listening.Store(listening)
}

func (s *ASR) listen(ctx context.Context) (domain.Value, error) {
	if s.deps.Robot == nil {
		return domain.Nothing, errNoRobot
	}
	s.listening.Store(true)
	if err := s.deps.Robot.StartListening(ctx); err != nil {
		s.listening.Store(false)
		return domain.Nothing, err
	}
	return domain.Nothing, nil
}

func (s *ASR) stopListening(ctx context.Context) (domain.Value, error) {
	if s.deps.Robot == nil {
		return domain.Nothing, errNoRobot
	}
	s.listening.Store(false)
	return domain.Nothing, s.deps.Robot.StopListening(ctx)
}
