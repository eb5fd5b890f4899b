package skills

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/reflex/internal/dto"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// DefaultHome is the location name of the charging station.
const DefaultHome = "home base"

// Movement states reported by getMovementState.
const (
	StateFollowing  = "following"
	StateNavigating = "navigating"
	StateStationary = "stationary"
)

// Move drives navigation and follow mode.
// Robot failures are logged and reflected in the movement state rather than
// returned, so a failed navigation never aborts a rule pass.
type Move struct {
	base
	opts dto.MoveOptions

	mu        sync.Mutex
	moving    bool
	following bool
}

// NewMove creates the Move skill.
func NewMove(deps Deps, options map[string]any) (*Move, error) {
	b, err := newBase("Move", deps, true)
	if err != nil {
		return nil, err
	}
	opts := dto.MoveOptions{Home: DefaultHome}
	if err := dto.Decode(options, &opts); err != nil {
		return nil, err
	}

	s := &Move{base: b, opts: opts}
	s.ops = registry.Operations{
		"goToLocation":      oneString(s.goToLocation),
		"goHome":            noArgs(s.goHome),
		"follow":            noArgs(s.follow),
		"stopFollowing":     noArgs(s.stop),
		"stopMovement":      noArgs(s.stop),
		"getSavedLocations": noArgs(s.savedLocations),
		"isMoving": noArgs(func(context.Context) (domain.Value, error) {
			moving, _ := s.flags()
			return domain.Bool(moving), nil
		}),
		"isFollowing": noArgs(func(context.Context) (domain.Value, error) {
			_, following := s.flags()
			return domain.Bool(following), nil
		}),
		"getMovementState": noArgs(func(context.Context) (domain.Value, error) {
			return domain.String(s.State()), nil
		}),
	}
	return s, nil
}

// State reports "following", "navigating" or "stationary".
func (s *Move) State() string {
	moving, following := s.flags()
	switch {
	case following:
		return StateFollowing
	case moving:
		return StateNavigating
	default:
		return StateStationary
	}
}

func (s *Move) flags() (moving, following bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moving, s.following
}

func (s *Move) set(moving, following bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moving, s.following = moving, following
}

func (s *Move) goToLocation(ctx context.Context, location string) (domain.Value, error) {
	if strings.TrimSpace(location) == "" {
		s.deps.Logger.Error("Location name cannot be empty")
		return domain.Nothing, nil
	}

	if saved, err := s.deps.Robot.Locations(ctx); err == nil && !containsFold(saved, location) {
		s.deps.Logger.Warn("Location not found in saved locations", "location", location, "saved", saved)
	}

	return s.navigate(ctx, location), nil
}

func (s *Move) goHome(ctx context.Context) (domain.Value, error) {
	return s.navigate(ctx, s.opts.Home), nil
}

func (s *Move) navigate(ctx context.Context, location string) domain.Value {
	s.set(true, false)
	if err := s.deps.Robot.GoTo(ctx, location); err != nil {
		s.set(false, false)
		s.deps.Logger.Error("Failed to navigate", "location", location, "err", err)
		return domain.Nothing
	}
	s.deps.Logger.Debug("Navigation started", "location", location)
	return domain.Nothing
}

func (s *Move) follow(ctx context.Context) (domain.Value, error) {
	s.set(false, true)
	if err := s.deps.Robot.BeginFollow(ctx); err != nil {
		s.set(false, false)
		s.deps.Logger.Error("Failed to start following", "err", err)
	}
	return domain.Nothing, nil
}

func (s *Move) stop(ctx context.Context) (domain.Value, error) {
	s.set(false, false)
	if err := s.deps.Robot.StopMovement(ctx); err != nil {
		s.deps.Logger.Error("Failed to stop movement", "err", err)
	}
	return domain.Nothing, nil
}

func (s *Move) savedLocations(ctx context.Context) (domain.Value, error) {
	saved, err := s.deps.Robot.Locations(ctx)
	if err != nil {
		s.deps.Logger.Error("Failed to retrieve saved locations", "err", err)
		return domain.Strings(nil), nil
	}
	return domain.Strings(saved), nil
}

func containsFold(list []string, name string) bool {
	name = strings.TrimSpace(name)
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}
