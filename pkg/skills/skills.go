// Package skills provides the built-in capabilities rules can call:
// TTS, ASR, TiltHead, Move, Locations, System and HuggingFace.
//
// Skills are created from a static factory table and registered by name.
// Each one drives a ports.Robot; HuggingFace also reads Memory.
package skills

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/pkg/ports"
	"github.com/aretw0/reflex/pkg/registry"
)

// Skill is a capability with a stable receiver name.
type Skill interface {
	registry.Capability
	Name() string
}

// Deps are the collaborators handed to every skill factory.
type Deps struct {
	Robot  ports.Robot
	Memory ports.Memory
	Logger *slog.Logger
}

// Factory builds a skill from its dependencies and free-form options.
type Factory func(deps Deps, options map[string]any) (Skill, error)

var factories = map[string]Factory{
	"TTS":         func(d Deps, o map[string]any) (Skill, error) { return NewTTS(d, o) },
	"ASR":         func(d Deps, o map[string]any) (Skill, error) { return NewASR(d), nil },
	"TiltHead":    func(d Deps, o map[string]any) (Skill, error) { return NewTiltHead(d, o) },
	"Move":        func(d Deps, o map[string]any) (Skill, error) { return NewMove(d, o) },
	"Locations":   func(d Deps, o map[string]any) (Skill, error) { return NewLocations(d), nil },
	"System":      func(d Deps, o map[string]any) (Skill, error) { return NewSystem(d, o) },
	"HuggingFace": func(d Deps, o map[string]any) (Skill, error) { return NewHuggingFace(d, o) },
}

// Names lists the built-in skills in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named skill.
func New(name string, deps Deps, options map[string]any) (Skill, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown skill %q", name)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	deps.Logger = deps.Logger.With("skill", name)

	skill, err := factory(deps, options)
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", name, err)
	}
	return skill, nil
}

// RegisterAll builds every built-in skill and registers it.
// options maps a skill name to its option subtree; a skill whose options contain
// "enabled: false" is skipped.
func RegisterAll(reg *registry.Registry, deps Deps, options map[string]map[string]any) error {
	for _, name := range Names() {
		opts := options[name]
		if enabled, ok := opts["enabled"].(bool); ok {
			if !enabled {
				continue
			}
			opts = without(opts, "enabled")
		}

		skill, err := New(name, deps, opts)
		if err != nil {
			return err
		}
		reg.Register(skill.Name(), skill)
	}
	return nil
}

func without(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}
