// Package config loads the reflex.yaml file consumed by the CLI.
//
// A missing file is not an error: every field has a default, and the file
// only overrides the keys it names.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the file looked up when no --config flag is given.
const DefaultPath = "reflex.yaml"

// Backends accepted by Memory.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the root of reflex.yaml.
type Config struct {
	Rules  RulesConfig               `yaml:"rules"`
	Loop   LoopConfig                `yaml:"loop"`
	Memory MemoryConfig              `yaml:"memory"`
	HTTP   HTTPConfig                `yaml:"http"`
	Log    LogConfig                 `yaml:"log"`
	Skills map[string]map[string]any `yaml:"skills"`
}

// RulesConfig selects where rule text comes from. File wins over URL;
// with neither set the embedded fallback rules are used.
type RulesConfig struct {
	File string        `yaml:"file"`
	URL  string        `yaml:"url"`
	Poll time.Duration `yaml:"poll"`
}

type LoopConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type MemoryConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// HTTPConfig enables the control API when Addr is non-empty.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Rules: RulesConfig{Poll: 30 * time.Second},
		Loop:  LoopConfig{Interval: 200 * time.Millisecond},
		Memory: MemoryConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "reflex:",
			},
		},
		Log:    LogConfig{Level: "info"},
		Skills: map[string]map[string]any{},
	}
}

// Load reads path over the defaults. A missing file yields Default().
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults and validates the result.
func Parse(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("invalid yaml: %w", err)
		}
	}
	if cfg.Skills == nil {
		cfg.Skills = map[string]map[string]any{}
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the runtime cannot honour.
func (c Config) Validate() error {
	var errs []error
	switch c.Memory.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown memory backend %q", c.Memory.Backend))
	}
	if c.Loop.Interval < 0 {
		errs = append(errs, errors.New("loop.interval must not be negative"))
	}
	if c.Rules.Poll < 0 {
		errs = append(errs, errors.New("rules.poll must not be negative"))
	}
	if c.Memory.Redis.TTL < 0 {
		errs = append(errs, errors.New("memory.redis.ttl must not be negative"))
	}
	return errors.Join(errs...)
}
