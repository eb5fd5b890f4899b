package skills

import (
	"context"
	"strings"

	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// Locations manages the robot's saved locations.
type Locations struct {
	base
}

// NewLocations creates the Locations skill.
func NewLocations(deps Deps) *Locations {
	b, _ := newBase("Locations", deps, false)
	s := &Locations{base: b}
	s.ops = registry.Operations{
		"listLocations":       noArgs(s.list),
		"saveCurrentLocation": oneString(s.save),
		"deleteLocation":      oneString(s.remove),
		"getLocationCount":    noArgs(s.count),
		"locationExists":      oneString(s.exists),
	}
	return s
}

func (s *Locations) list(ctx context.Context) (domain.Value, error) {
	if s.deps.Robot == nil {
		return domain.Nothing, errNoRobot
	}
	saved, err := s.deps.Robot.Locations(ctx)
	if err != nil {
		s.deps.Logger.Error("Failed to retrieve locations", "err", err)
		return domain.String("Error retrieving locations"), nil
	}
	if len(saved) == 0 {
		return domain.String("No locations saved"), nil
	}
	return domain.String(strings.Join(saved, ", ")), nil
}

func (s *Locations) save(ctx context.Context, name string) (domain.Value, error) {
	if s.deps.Robot == nil {
		return domain.Nothing, errNoRobot
	}
	name = strings.TrimSpace(name)
	if name == "" {
		s.deps.Logger.Error("Location name cannot be empty")
		return domain.Bool(false), nil
	}
	if err := s.deps.Robot.SaveLocation(ctx, name); err != nil {
		s.deps.Logger.Error("Error saving location", "location", name, "err", err)
		return domain.Bool(false), nil
	}
	return domain.Bool(true), nil
}

func (s *Locations) remove(ctx context.Context, name string) (domain.Value, error) {
	if s.deps.Robot == nil {
		return domain.Nothing, errNoRobot
	}
	name = strings.TrimSpace(name)
	if name == "" {
		s.deps.Logger.Error("Location name cannot be empty")
		return domain.Bool(false), nil
	}

	saved, err := s.deps.Robot.Locations(ctx)
	if err != nil {
		s.deps.Logger.Error("Error retrieving locations list", "err", err)
		return domain.Bool(false), nil
	}
	if !containsFold(saved, name) {
		s.deps.Logger.Warn("Location not found in saved locations", "location", name, "saved", saved)
		return domain.Bool(false), nil
	}

	if err := s.deps.Robot.DeleteLocation(ctx, name); err != nil {
		s.deps.Logger.Error("Error deleting location", "location", name, "err", err)
		return domain.Bool(false), nil
	}
	return domain.Bool(true), nil
}

func (s *Locations) count(ctx context.Context) (domain.Value, error) {
	if s.deps.Robot == nil {
		return domain.Nothing, errNoRobot
	}
	saved, err := s.deps.Robot.Locations(ctx)
	if err != nil {
		s.deps.Logger.Error("Failed to get location count", "err", err)
		return domain.Number(0), nil
	}
	return domain.Number(float64(len(saved))), nil
}

func (s *Locations) exists(ctx context.Context, name string) (domain.Value, error) {
	if s.deps.Robot == nil {
		return domain.Nothing, errNoRobot
	}
	if strings.TrimSpace(name) == "" {
		return domain.Bool(false), nil
	}
	saved, err := s.deps.Robot.Locations(ctx)
	if err != nil {
		s.deps.Logger.Error("Error checking if location exists", "location", name, "err", err)
		return domain.Bool(false), nil
	}
	return domain.Bool(containsFold(saved, name)), nil
}
