package memory

import (
	"context"
	"sync"
)

// Source implements ports.RuleSource and ports.Watchable over a string held in memory.
// It is the source used for bundled rules and in tests.
type Source struct {
	mu       sync.Mutex
	text     string
	watchers []chan struct{}
}

// NewSource creates a source holding text.
func NewSource(text string) *Source {
	return &Source{text: text}
}

// Load returns the held text.
func (s *Source) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, nil
}

// Set replaces the held text and signals watchers.
func (s *Source) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending.
		}
	}
}

// Watch signals every Set until ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}
