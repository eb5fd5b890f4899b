package reflex_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/reflex"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/skills"
)

func param(t *testing.T, e *reflex.Engine, name string) domain.Value {
	t.Helper()
	v, _, err := e.Memory().GetStateParam(context.Background(), name)
	require.NoError(t, err)
	return v
}

func TestEngine_StartInitializesState(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := reflex.New(`["a" == "b" --> TTS.speak("never")]`)
	require.NoError(t, e.Start(context.Background()))
	assert.True(t, e.Running())
	assert.ErrorIs(t, e.Start(context.Background()), domain.ErrAlreadyRunning)

	assert.Equal(t, domain.String(domain.InteractionActive), param(t, e, domain.ParamInteractionState))
	assert.Len(t, e.Rules(), 1)
	assert.NotEmpty(t, e.Revision())

	e.Stop()
	assert.False(t, e.Running())
}

func TestEngine_OnAsrResult(t *testing.T) {
	ctx := context.Background()
	asr := skills.NewASR(skills.Deps{})
	e := reflex.New("", reflex.WithCapability("ASR", asr))

	asr.SetListening(true)
	require.NoError(t, e.OnAsrResult(ctx, "hello robot", "nl-NL"))

	assert.Equal(t, domain.String("hello robot"), param(t, e, domain.ParamLastAsrResult))
	assert.Equal(t, domain.String("nl-NL"), param(t, e, domain.ParamAsrLanguage))
	assert.Equal(t, domain.String(domain.InteractionAsrReceived), param(t, e, domain.ParamInteractionState))

	v, err := e.Registry().Invoke(ctx, "ASR", "isListening", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(false), v)
}

func TestEngine_OnAsrResultBlank(t *testing.T) {
	ctx := context.Background()
	asr := skills.NewASR(skills.Deps{})
	e := reflex.New("", reflex.WithCapability("ASR", asr))

	asr.SetListening(true)
	require.NoError(t, e.OnAsrResult(ctx, "", "en-US"))

	state, err := e.Memory().GetState(ctx)
	require.NoError(t, err)
	assert.Empty(t, state)

	v, err := e.Registry().Invoke(ctx, "ASR", "isListening", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(false), v, "listening flag is cleared even without text")
}

func TestEngine_OnWakeupWord(t *testing.T) {
	ctx := context.Background()

	t.Run("sets active", func(t *testing.T) {
		e := reflex.New("")
		require.NoError(t, e.OnWakeupWord(ctx))
		assert.Equal(t, domain.String(domain.InteractionActive), param(t, e, domain.ParamInteractionState))
	})

	t.Run("ignored while listening", func(t *testing.T) {
		asr := skills.NewASR(skills.Deps{})
		asr.SetListening(true)
		e := reflex.New("", reflex.WithCapability("ASR", asr))

		require.NoError(t, e.OnWakeupWord(ctx))
		_, ok, err := e.Memory().GetStateParam(ctx, domain.ParamInteractionState)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEngine_Reload(t *testing.T) {
	ctx := context.Background()
	e := reflex.New(`["a" == "a" --> Memory.setStateParam("v", "one")]`, reflex.WithSynchronousActions())

	require.NoError(t, e.Tick(ctx))
	assert.Equal(t, domain.String("one"), param(t, e, "v"))
	first := e.Revision()

	text := `[
		["a" == "a" --> Memory.setStateParam("v", "two")]
		[PatternMatch("x") --> Memory.setStateParam("v", "never")]
	]`
	err := e.Reload(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArity)
	assert.Equal(t, text, e.RuleText())

	require.NoError(t, e.Tick(ctx))
	assert.NotEqual(t, first, e.Revision())
	assert.Len(t, e.Rules(), 1)
	assert.Equal(t, domain.String("two"), param(t, e, "v"))
}

func TestEngine_TickWhileIdleRunsActions(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	e := reflex.New(`["a" == "a" --> Memory.setStateParam("n", "x")]`)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.Tick(ctx))
	}
	assert.Equal(t, domain.String("x"), param(t, e, "n"))

	require.NoError(t, e.Reload(`["a" == "b" --> Memory.setStateParam("n", "y")]`))
	require.NoError(t, e.Start(ctx))
	time.Sleep(20 * time.Millisecond)
	e.Stop()

	history, _, err := e.Memory().GetStateParamHistory(ctx, "n", domain.Window{})
	require.NoError(t, err)
	assert.Len(t, history, 3, "actions from idle ticks never run again after Start")
}

func TestEngine_LifecycleHooksAccumulate(t *testing.T) {
	var ticks, matches int
	e := reflex.New(`["a" == "a" --> Memory.setStateParam("x", "y")]`,
		reflex.WithSynchronousActions(),
		reflex.WithLifecycleHooks(domain.LifecycleHooks{
			OnTick: func(context.Context, *domain.TickEvent) { ticks++ },
		}),
		reflex.WithLifecycleHooks(domain.LifecycleHooks{
			OnRuleMatch: func(context.Context, *domain.RuleEvent) { matches++ },
		}),
	)

	require.NoError(t, e.Tick(context.Background()))
	require.NoError(t, e.Tick(context.Background()))
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 2, matches)
}

func TestRunner_FeedsEvents(t *testing.T) {
	ctx := context.Background()
	e := reflex.New(`[Memory.getStateParam("lastAsrResult") == "ping" --> Memory.setStateParam("reply", "pong")]`,
		reflex.WithSynchronousActions())

	var out strings.Builder
	r := reflex.NewRunner()
	r.Input = strings.NewReader("\nping\n/wake\nexit\nignored\n")
	r.Output = &out
	r.Headless = true

	require.NoError(t, r.Run(ctx, e))
	require.NoError(t, e.Tick(ctx))

	assert.Equal(t, domain.String("ping"), param(t, e, domain.ParamLastAsrResult))
	assert.Equal(t, domain.String(reflex.DefaultLanguage), param(t, e, domain.ParamAsrLanguage))
	assert.Equal(t, domain.String(domain.InteractionActive), param(t, e, domain.ParamInteractionState))
	assert.Equal(t, domain.String("pong"), param(t, e, "reply"))
	assert.Empty(t, out.String())
}

func TestRunner_RequiresIO(t *testing.T) {
	r := reflex.NewRunner()
	assert.Error(t, r.Run(context.Background(), reflex.New("")))
}
