package memory

import (
	"context"
	"sync"

	"github.com/aretw0/reflex/pkg/domain"
)

// Store implements ports.Memory in process.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current map[string]domain.Value
	history map[string][]domain.StateEntry
}

// NewStore creates a new, empty in-process memory.
func NewStore() *Store {
	return &Store{
		current: make(map[string]domain.Value),
		history: make(map[string][]domain.StateEntry),
	}
}

// SetStateParam upserts the current value and appends a history entry.
func (s *Store) SetStateParam(ctx context.Context, name string, v domain.Value) error {
	entry := domain.NewStateEntry(v)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current[name] = v
	s.history[name] = append(s.history[name], entry)
	return nil
}

// GetStateParam returns the current value of name.
func (s *Store) GetStateParam(ctx context.Context, name string) (domain.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.current[name]
	return v, ok, nil
}

// GetStateParamHistory returns a copy of the entries of name inside w.
func (s *Store) GetStateParamHistory(ctx context.Context, name string, w domain.Window) ([]domain.StateEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.history[name]
	if !ok {
		return nil, false, nil
	}
	return w.Filter(entries), true, nil
}

// GetPreviousStateParam returns the second-most-recent value of name.
func (s *Store) GetPreviousStateParam(ctx context.Context, name string) (domain.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[name]
	if len(entries) < 2 {
		return domain.Nothing, false, nil
	}
	return entries[len(entries)-2].Value, true, nil
}

// GetState returns a copy of the current values.
func (s *Store) GetState(ctx context.Context) (map[string]domain.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Value, len(s.current))
	for k, v := range s.current {
		out[k] = v
	}
	return out, nil
}

// GetStateHistory returns a copy of every history filtered by w.
func (s *Store) GetStateHistory(ctx context.Context, w domain.Window) (map[string][]domain.StateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]domain.StateEntry, len(s.history))
	for k, entries := range s.history {
		out[k] = w.Filter(entries)
	}
	return out, nil
}

// ClearHistory drops all history, keeping current values.
func (s *Store) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make(map[string][]domain.StateEntry)
	return nil
}

// Reset drops everything.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = make(map[string]domain.Value)
	s.history = make(map[string][]domain.StateEntry)
	return nil
}
