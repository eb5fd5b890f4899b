package domain

import "time"

// StateEntry is one historic value of a state parameter.
type StateEntry struct {
	Value     Value     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStateEntry stamps v with the current wall-clock time at millisecond resolution.
func NewStateEntry(v Value) StateEntry {
	return StateEntry{Value: v, Timestamp: time.Now().Truncate(time.Millisecond)}
}

// Window bounds a history query. Nil bounds are open; set bounds are inclusive.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Filter returns the entries inside the window, preserving order.
func (w Window) Filter(entries []StateEntry) []StateEntry {
	out := make([]StateEntry, 0, len(entries))
	for _, e := range entries {
		if w.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	return out
}

// Well-known state parameters written by event handlers.
const (
	ParamInteractionState = "interactionState"
	ParamLastAsrResult    = "lastAsrResult"
	ParamAsrLanguage      = "asrLanguage"
	ParamLastLLMResponse  = "lastLlmResponse"

	InteractionActive      = "Active"
	InteractionAsrReceived = "asrReceived"
)
