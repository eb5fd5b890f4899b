package ports

import (
	"context"
	"time"
)

// Robot is the hardware SDK surface used by the built-in capabilities.
// Implementations wrap a real robot or a console stand-in.
type Robot interface {
	// Speak starts speech synthesis. It returns once the utterance was queued.
	Speak(ctx context.Context, text string) error

	// StartListening asks the speech recognizer for one utterance.
	// Results arrive asynchronously through the engine's ASR event.
	StartListening(ctx context.Context) error
	StopListening(ctx context.Context) error

	// TiltHead moves the head to the given angle in degrees.
	TiltHead(ctx context.Context, degrees int) error

	GoTo(ctx context.Context, location string) error
	BeginFollow(ctx context.Context) error
	StopMovement(ctx context.Context) error

	Locations(ctx context.Context) ([]string, error)
	SaveLocation(ctx context.Context, name string) error
	DeleteLocation(ctx context.Context, name string) error

	// OpenPage switches the robot UI to a system page, e.g. "settings".
	OpenPage(ctx context.Context, page string) error
}

// SpeechTiming estimates how long the robot needs to say text aloud.
// Used by the TTS capability to block until an utterance is likely finished.
type SpeechTiming func(text string) time.Duration
