package skills

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/reflex/internal/dto"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// TTS makes the robot speak. speak blocks until the utterance is estimated
// to be finished, which keeps speech rules from talking over each other.
type TTS struct {
	base
	opts dto.TTSOptions
}

// NewTTS creates the TTS skill.
func NewTTS(deps Deps, options map[string]any) (*TTS, error) {
	b, err := newBase(domain.ReceiverTTS, deps, true)
	if err != nil {
		return nil, err
	}
	opts := dto.TTSOptions{
		PerChar: 100 * time.Millisecond,
		Base:    300 * time.Millisecond,
		Settle:  100 * time.Millisecond,
	}
	if err := dto.Decode(options, &opts); err != nil {
		return nil, err
	}

	s := &TTS{base: b, opts: opts}
	s.ops = registry.Operations{
		domain.MethodSpeak: oneString(s.speak),
	}
	return s, nil
}

// Estimate returns how long text takes to say.
func (s *TTS) Estimate(text string) time.Duration {
	return time.Duration(utf8.RuneCountInString(text))*s.opts.PerChar + s.opts.Base
}

func (s *TTS) speak(ctx context.Context, text string) (domain.Value, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Nothing, nil
	}
	s.deps.Logger.Debug("Speaking", "text", text, "length", len(text))

	if !s.opts.NoWait {
		if err := sleep(ctx, s.opts.Settle); err != nil {
			return domain.Nothing, err
		}
	}
	if err := s.deps.Robot.Speak(ctx, text); err != nil {
		return domain.Nothing, err
	}
	if s.opts.NoWait {
		return domain.Nothing, nil
	}
	return domain.Nothing, sleep(ctx, s.Estimate(text))
}
