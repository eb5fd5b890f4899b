package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/reflex/pkg/domain"
)

// Capability is a named provider of operations callable from rules,
// e.g. TTS or Move. Method names are matched exactly.
type Capability interface {
	Invoke(ctx context.Context, method string, args []domain.Value) (domain.Value, error)
}

// OperationFunc implements a single capability operation.
// It receives the already evaluated arguments.
type OperationFunc func(ctx context.Context, args []domain.Value) (domain.Value, error)

// Operations is a Capability backed by a method table.
type Operations map[string]OperationFunc

// Invoke dispatches to the named operation.
func (o Operations) Invoke(ctx context.Context, method string, args []domain.Value) (domain.Value, error) {
	fn, ok := o[method]
	if !ok {
		return domain.Nothing, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, method)
	}
	return fn(ctx, args)
}

// Registry manages the available capabilities.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		caps: make(map[string]Capability),
	}
}

// Register adds a capability to the registry.
// If a capability with the same name exists, it is overwritten.
func (r *Registry) Register(name string, c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[name] = c
}

// Lookup returns the capability registered under name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[name]
	return c, ok
}

// Names returns the registered capability names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke looks up a capability by name and executes one of its operations.
// Returns an error wrapping domain.ErrUnknownReceiver if the capability is not found.
func (r *Registry) Invoke(ctx context.Context, receiver, method string, args []domain.Value) (domain.Value, error) {
	c, ok := r.Lookup(receiver)
	if !ok {
		return domain.Nothing, fmt.Errorf("%w: %s", domain.ErrUnknownReceiver, receiver)
	}
	return c.Invoke(ctx, method, args)
}
