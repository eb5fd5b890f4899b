package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reflex.yaml")
	content := `
rules:
  url: http://example.com/rules.txt
  poll: 5s
loop:
  interval: 50ms
memory:
  backend: redis
  redis:
    addr: redis:6379
    ttl: 1h
http:
  addr: ":8080"
skills:
  TTS:
    no_wait: true
  HuggingFace:
    enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/rules.txt", cfg.Rules.URL)
	assert.Equal(t, 5*time.Second, cfg.Rules.Poll)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.Interval)
	assert.Equal(t, BackendRedis, cfg.Memory.Backend)
	assert.Equal(t, "redis:6379", cfg.Memory.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Memory.Redis.TTL)
	// untouched keys keep their defaults
	assert.Equal(t, "reflex:", cfg.Memory.Redis.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, true, cfg.Skills["TTS"]["no_wait"])
	assert.Equal(t, false, cfg.Skills["HuggingFace"]["enabled"])
}

func TestParse(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		cfg, err := Parse(strings.NewReader("  \n"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := Parse(strings.NewReader("loop:\n  speed: 3\n"))
		assert.Error(t, err)
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		_, err := Parse(strings.NewReader("memory:\n  backend: etcd\n"))
		assert.ErrorContains(t, err, "etcd")
	})

	t.Run("NegativeDurations", func(t *testing.T) {
		_, err := Parse(strings.NewReader("loop:\n  interval: -1s\nrules:\n  poll: -1s\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loop.interval")
		assert.Contains(t, err.Error(), "rules.poll")
	})

	t.Run("NullSkills", func(t *testing.T) {
		cfg, err := Parse(strings.NewReader("skills:\n"))
		require.NoError(t, err)
		assert.NotNil(t, cfg.Skills)
	})
}
