package dto

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TTSOptions tunes the speech duration estimate.
// It uses "mapstructure" tags to match the YAML keys under skills.TTS.
type TTSOptions struct {
	PerChar time.Duration `mapstructure:"per_char"`
	Base    time.Duration `mapstructure:"base"`
	Settle  time.Duration `mapstructure:"settle"`
	NoWait  bool          `mapstructure:"no_wait"`
}

// TiltOptions holds the head angles in degrees.
type TiltOptions struct {
	Up   int `mapstructure:"up"`
	Down int `mapstructure:"down"`
}

// MoveOptions names the charging station location.
type MoveOptions struct {
	Home string `mapstructure:"home"`
}

// SystemOptions extends the built-in page names.
type SystemOptions struct {
	Pages map[string]string `mapstructure:"pages"`
}

// LLMOptions configures the chat completion backend.
type LLMOptions struct {
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyEnv    string        `mapstructure:"api_key_env"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxHistory   int           `mapstructure:"max_history"`
}

// Decode overlays raw (typically a YAML subtree) onto out.
// Durations accept Go duration strings such as "150ms".
func Decode(raw map[string]any, out any) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
