package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/reflex/pkg/domain"
)

// Event names sent on GET /events.
const (
	EventReload = "reload"
	EventMemory = "memory"
	EventAsr    = "asr"
	EventWakeup = "wakeup"
	EventMatch  = "match"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager fans events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Message]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan Message]struct{}),
	}
}

// Subscribe registers a buffered channel. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe() (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast encodes payload as JSON and sends it to every subscriber.
// Slow clients whose buffer is full miss the event.
func (sm *StreamManager) Broadcast(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := Message{Event: event, Data: string(data)}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Hooks returns lifecycle hooks that stream rule matches and rule swaps.
// Pass them to the engine and the same manager to the server via WithStreams.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRuleMatch: func(_ context.Context, e *domain.RuleEvent) {
			sm.Broadcast(EventMatch, map[string]any{"rule": e.Index, "sync": e.Synchronous})
		},
		OnReload: func(_ context.Context, e *domain.ReloadEvent) {
			sm.Broadcast(EventReload, e)
		},
	}
}

// SubscribeEvents handles GET /events (SSE). The optional watch query
// parameter is a comma separated list of event names to receive.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var watch map[string]bool
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = make(map[string]bool)
		for _, name := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(name)] = true
		}
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if watch != nil && !watch[msg.Event] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}
