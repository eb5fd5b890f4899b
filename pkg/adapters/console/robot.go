// Package console provides a ports.Robot that prints what a robot would do.
// It lets rules run on a workstation without hardware.
package console

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/aretw0/reflex/pkg/ports"
)

// DefaultLocations are the locations a fresh console robot knows.
var DefaultLocations = []string{"home base"}

// Robot writes one styled line per command and keeps saved locations in memory.
type Robot struct {
	mu        sync.Mutex
	out       *termenv.Output
	locations []string
	position  string
	tilt      int
}

var _ ports.Robot = (*Robot)(nil)

// Option configures the Robot.
type Option func(*Robot)

// WithLocations replaces the initially saved locations.
func WithLocations(names ...string) Option {
	return func(r *Robot) {
		r.locations = append([]string(nil), names...)
	}
}

// WithProfile forces a color profile, e.g. termenv.Ascii for plain output.
func WithProfile(p termenv.Profile) Option {
	return func(r *Robot) {
		r.out = termenv.NewOutput(r.out.Writer(), termenv.WithProfile(p))
	}
}

// New creates a console robot writing to w.
func New(w io.Writer, opts ...Option) *Robot {
	r := &Robot{
		out:       termenv.NewOutput(w),
		locations: append([]string(nil), DefaultLocations...),
		position:  DefaultLocations[0],
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Robot) print(tag, color, format string, args ...any) {
	label := r.out.String(fmt.Sprintf("[%s]", tag)).Foreground(r.out.Color(color)).Bold()
	fmt.Fprintf(r.out, "%s %s\n", label, fmt.Sprintf(format, args...))
}

func (r *Robot) Speak(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print("speak", "#818cf8", "%s", text)
	return nil
}

func (r *Robot) StartListening(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print("asr", "#a78bfa", "listening")
	return nil
}

func (r *Robot) StopListening(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print("asr", "#a78bfa", "stopped listening")
	return nil
}

func (r *Robot) TiltHead(ctx context.Context, degrees int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tilt = degrees
	r.print("head", "#c084fc", "tilt to %d degrees", degrees)
	return nil
}

func (r *Robot) GoTo(ctx context.Context, location string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = location
	r.print("move", "#e879f9", "going to %s", location)
	return nil
}

func (r *Robot) BeginFollow(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print("move", "#e879f9", "following")
	return nil
}

func (r *Robot) StopMovement(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print("move", "#e879f9", "stopped")
	return nil
}

func (r *Robot) Locations(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.locations...), nil
}

func (r *Robot) SaveLocation(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.ContainsFunc(r.locations, func(l string) bool { return strings.EqualFold(l, name) }) {
		r.locations = append(r.locations, name)
	}
	r.print("locations", "#f472b6", "saved %s", name)
	return nil
}

func (r *Robot) DeleteLocation(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = slices.DeleteFunc(r.locations, func(l string) bool { return strings.EqualFold(l, name) })
	r.print("locations", "#f472b6", "deleted %s", name)
	return nil
}

func (r *Robot) OpenPage(ctx context.Context, page string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print("system", "#fb7185", "open %s", page)
	return nil
}

// Position returns the last location the robot was sent to.
func (r *Robot) Position() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Tilt returns the last head angle.
func (r *Robot) Tilt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tilt
}
