package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/reflex/internal/config"
	"github.com/aretw0/reflex/pkg/adapters/memory"
	"github.com/aretw0/reflex/pkg/adapters/redis"
	"github.com/aretw0/reflex/pkg/adapters/source"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func quietConfig() config.Config {
	cfg := config.Default()
	cfg.Skills = map[string]map[string]any{"TTS": {"no_wait": true}}
	return cfg
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := writeFile(t, "reflex.yaml", "rules:\n  url: http://example.com/r.txt\nlog:\n  level: debug\n")

	cfg, err := LoadConfig(RunOptions{ConfigPath: path, RulesFile: "rules.txt", HTTPAddr: ":9000"})
	require.NoError(t, err)
	assert.Equal(t, "rules.txt", cfg.Rules.File)
	assert.Empty(t, cfg.Rules.URL, "a file flag replaces a configured URL")
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	cfg, err = LoadConfig(RunOptions{ConfigPath: path, LogLevel: "warn"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/r.txt", cfg.Rules.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestBuildStack_InMemory(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	stack, err := buildStack(ctx, quietConfig(), &out, discardLogger())
	require.NoError(t, err)
	defer stack.Close()
	assert.Nil(t, stack.Locker)

	_, ok := stack.Source.(*memory.Source)
	assert.True(t, ok, "no file or URL selects the embedded rules")
	assert.Equal(t, source.DefaultRules, stack.Engine.RuleText())
	assert.ElementsMatch(t,
		[]string{"ASR", "HuggingFace", "Locations", "Move", "System", "TTS", "TiltHead"},
		stack.Engine.Registry().Names())

	mem := stack.Engine.Memory()
	require.NoError(t, mem.SetStateParam(ctx, domain.ParamInteractionState, domain.String("active")))
	require.NoError(t, stack.Engine.Tick(ctx))

	// Both rules speak, so they run inline and the second sees the first's write.
	assert.Contains(t, out.String(), "this is a test")
	assert.Contains(t, out.String(), "Interaction is idle")
	v, _, err := mem.GetStateParam(ctx, domain.ParamInteractionState)
	require.NoError(t, err)
	assert.Equal(t, domain.String("active"), v)

	mfs, err := stack.Gatherer.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "reflex_loop_ticks_total")
}

func TestBuildStack_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := quietConfig()
	cfg.Memory.Backend = config.BackendRedis
	cfg.Memory.Redis.Addr = mr.Addr()

	stack, err := buildStack(context.Background(), cfg, io.Discard, discardLogger())
	require.NoError(t, err)
	defer stack.Close()

	_, ok := stack.Engine.Memory().(*redis.Memory)
	assert.True(t, ok)
	require.NotNil(t, stack.Locker)

	lease, err := stack.acquireLease(context.Background(), discardLogger())
	require.NoError(t, err)
	assert.True(t, mr.Exists("reflex:lock:engine"))
	require.NoError(t, lease.Release(context.Background()))

	require.NoError(t, stack.Engine.Memory().SetStateParam(context.Background(), "k", domain.String("v")))
	assert.NotEmpty(t, mr.Keys())
}

func TestBuildStack_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := quietConfig()
	cfg.Memory.Backend = config.BackendRedis
	cfg.Memory.Redis.Addr = addr

	_, err := buildStack(context.Background(), cfg, io.Discard, discardLogger())
	assert.ErrorContains(t, err, "redis")
}

func TestBuildStack_FileRulesAndDisabledSkill(t *testing.T) {
	rules := writeFile(t, "rules.txt", `[[ASR.isListening() == "false" --> ASR.listen()]]`)
	cfg := quietConfig()
	cfg.Rules.File = rules
	cfg.Skills["HuggingFace"] = map[string]any{"enabled": false}

	stack, err := buildStack(context.Background(), cfg, io.Discard, discardLogger())
	require.NoError(t, err)
	defer stack.Close()

	_, ok := stack.Source.(*source.FileWatcher)
	assert.True(t, ok)
	assert.Contains(t, stack.Engine.RuleText(), "ASR.listen()")
	assert.NotContains(t, stack.Engine.Registry().Names(), "HuggingFace")
}

func TestBuildStack_MissingRulesFile(t *testing.T) {
	cfg := quietConfig()
	cfg.Rules.File = filepath.Join(t.TempDir(), "missing.txt")

	_, err := buildStack(context.Background(), cfg, io.Discard, discardLogger())
	assert.ErrorContains(t, err, "failed to load rules")
}

func TestRun_ConsoleSession(t *testing.T) {
	path := writeFile(t, "reflex.yaml", "skills:\n  TTS:\n    no_wait: true\nloop:\n  interval: 10ms\nlog:\n  level: error\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := Run(ctx, RunOptions{ConfigPath: path, Quiet: true, HTTPAddr: "127.0.0.1:0"}, IO{
		In:  strings.NewReader("/wake\nhello there\nexit\n"),
		Out: io.Discard,
	})
	require.NoError(t, err)
	assert.NoError(t, ctx.Err(), "the session ends on exit, not on timeout")
}

func TestRun_HeadlessStopsOnCancel(t *testing.T) {
	path := writeFile(t, "reflex.yaml", "skills:\n  TTS:\n    no_wait: true\nlog:\n  level: error\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := Run(ctx, RunOptions{ConfigPath: path, Headless: true, Quiet: true}, IO{Out: &syncWriter{w: &out}})
	assert.NoError(t, err)
}

func TestValidateReport(t *testing.T) {
	var out bytes.Buffer
	err := report(&out, `[
		[Memory.getStateParam("a") == "b" --> TTS.speak("ok")]
		[Memory.getStateParam("a") -->]
	]`)
	assert.ErrorIs(t, err, ErrInvalidRules)
	assert.Contains(t, out.String(), "block 1")
	assert.Contains(t, out.String(), "1 rules valid, 1 skipped")

	out.Reset()
	require.NoError(t, report(&out, source.DefaultRules))
	assert.Contains(t, out.String(), "2 rules valid")
}

func TestValidate_FromFile(t *testing.T) {
	rules := writeFile(t, "rules.txt", source.DefaultRules)
	var out bytes.Buffer
	err := Validate(context.Background(), RunOptions{ConfigPath: filepath.Join(t.TempDir(), "none.yaml"), RulesFile: rules}, &out)
	require.NoError(t, err)
}

func TestInspect(t *testing.T) {
	rules := writeFile(t, "rules.txt", source.DefaultRules)
	opts := RunOptions{ConfigPath: filepath.Join(t.TempDir(), "none.yaml"), RulesFile: rules}

	t.Run("Text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, Inspect(context.Background(), opts, FormatText, true, &out))
		assert.Contains(t, out.String(), `TTS.speak("this is a test")`)
	})

	t.Run("Mermaid", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, Inspect(context.Background(), opts, FormatMermaid, true, &out))
		assert.True(t, strings.HasPrefix(out.String(), "graph TD"))
	})

	t.Run("Markdown", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, Inspect(context.Background(), opts, FormatMarkdown, true, &out))
		assert.Contains(t, out.String(), "Rule 0")
	})

	t.Run("Unknown", func(t *testing.T) {
		err := Inspect(context.Background(), opts, "svg", true, io.Discard)
		assert.ErrorContains(t, err, "svg")
	})
}

func TestRulesMarkdown(t *testing.T) {
	md := rulesMarkdown(nil, []*domain.ParseError{{Block: 3, Err: domain.ErrArity}})
	assert.Contains(t, md, "_No rules._")
	assert.Contains(t, md, "## Skipped")
	assert.Contains(t, md, "block 3: wrong number of arguments")
}
