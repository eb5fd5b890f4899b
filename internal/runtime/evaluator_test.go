package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/reflex/internal/compiler"
	"github.com/aretw0/reflex/internal/runtime"
	"github.com/aretw0/reflex/pkg/adapters/memory"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// recorder is a capability that remembers every call it receives.
type recorder struct {
	calls []string
	reply domain.Value
	err   error
}

func (r *recorder) Invoke(_ context.Context, method string, args []domain.Value) (domain.Value, error) {
	call := method
	for _, a := range args {
		call += " " + a.String()
	}
	r.calls = append(r.calls, call)
	return r.reply, r.err
}

func newEnv(t *testing.T) (runtime.Env, *registry.Registry) {
	t.Helper()
	reg := registry.NewRegistry()
	return runtime.Env{Memory: memory.NewStore(), Registry: reg}, reg
}

func eval(t *testing.T, env runtime.Env, src string) (domain.Value, error) {
	t.Helper()
	expr, err := compiler.NewParser().ParseExpression(src)
	require.NoError(t, err)
	return runtime.Evaluate(context.Background(), expr, env)
}

func TestEvaluate_Literals(t *testing.T) {
	env, _ := newEnv(t)

	v, err := eval(t, env, `"hello"`)
	require.NoError(t, err)
	assert.Equal(t, domain.String("hello"), v)

	v, err = eval(t, env, `"a" == "a"`)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), v)

	v, err = eval(t, env, `"a" == "A"`)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(false), v)
}

func TestEvaluate_LogicalOperatorsDoNotShortCircuit(t *testing.T) {
	env, _ := newEnv(t)
	ctx := context.Background()

	expr := domain.AndExpr{
		Left: domain.FunctionCall{
			Receiver: domain.ReceiverMemory,
			Method:   "setStateParam",
			Args:     []domain.Expression{domain.StringLiteral{Value: "x"}, domain.StringLiteral{Value: "1"}},
		},
		Right: domain.StringLiteral{Value: "true"},
	}

	v, err := runtime.Evaluate(ctx, expr, env)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(false), v, "a string literal is never truthy")

	got, ok, _ := env.Memory.GetStateParam(ctx, "x")
	assert.True(t, ok, "left operand side effect must happen")
	assert.Equal(t, domain.String("1"), got)

	// OR evaluates the right side even when the left already holds.
	_, err = eval(t, env, `"a" == "a" OR Memory.setStateParam("y", "2")`)
	require.NoError(t, err)
	got, _, _ = env.Memory.GetStateParam(ctx, "y")
	assert.Equal(t, domain.String("2"), got)
}

func TestEvaluate_Truthiness(t *testing.T) {
	env, _ := newEnv(t)

	cases := map[string]bool{
		`"a" == "a" AND "b" == "b"`: true,
		`"a" == "a" AND "b" == "c"`: false,
		`"a" == "b" OR "b" == "b"`:  true,
		`"true" OR "true"`:          false,
	}
	for src, want := range cases {
		v, err := eval(t, env, src)
		require.NoError(t, err, src)
		assert.Equal(t, domain.Bool(want), v, src)
	}
}

func TestEvaluate_Patterns(t *testing.T) {
	env, _ := newEnv(t)
	ctx := context.Background()
	require.NoError(t, env.Memory.SetStateParam(ctx, "lastAsrResult", domain.String("Go to the Kitchen")))

	v, err := eval(t, env, `PatternMatch("go to {place}", Memory.getStateParam("lastAsrResult"))`)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), v)

	v, err = eval(t, env, `ExtractParam("go to {place}", Memory.getStateParam("lastAsrResult"))`)
	require.NoError(t, err)
	assert.Equal(t, domain.String("the Kitchen"), v)

	v, err = eval(t, env, `ExtractParam("{a} to {b}", Memory.getStateParam("lastAsrResult"), 1)`)
	require.NoError(t, err)
	assert.Equal(t, domain.String("the Kitchen"), v)

	v, err = eval(t, env, `ExtractParam("stop {x}", Memory.getStateParam("lastAsrResult"))`)
	require.NoError(t, err)
	assert.True(t, v.IsNothing())

	// Unset values read as Nothing, whose text is empty.
	v, err = eval(t, env, `PatternMatch("*", Memory.getStateParam("unset"))`)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), v)
}

func TestEvaluate_Memory(t *testing.T) {
	env, _ := newEnv(t)
	ctx := context.Background()

	_, err := eval(t, env, `Memory.setStateParam("s", "a")`)
	require.NoError(t, err)

	v, err := eval(t, env, `Memory.getPreviousStateParam("s")`)
	require.NoError(t, err)
	assert.True(t, v.IsNothing())

	_, err = eval(t, env, `Memory.setStateParam("s", Memory.getStateParam("s") == "a")`)
	require.NoError(t, err)

	v, err = eval(t, env, `Memory.getStateParam("s")`)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), v)

	v, err = eval(t, env, `Memory.getPreviousStateParam("s")`)
	require.NoError(t, err)
	assert.Equal(t, domain.String("a"), v)

	_, err = eval(t, env, `Memory.clearHistory()`)
	require.NoError(t, err)
	_, ok, _ := env.Memory.GetStateParamHistory(ctx, "s", domain.Window{})
	assert.False(t, ok)

	_, err = eval(t, env, `Memory.reset()`)
	require.NoError(t, err)
	state, _ := env.Memory.GetState(ctx)
	assert.Empty(t, state)
}

func TestEvaluate_Capabilities(t *testing.T) {
	env, reg := newEnv(t)
	rec := &recorder{reply: domain.String("done")}
	reg.Register("Move", rec)

	v, err := eval(t, env, `Move.goToLocation(ExtractParam("go to {x}", "go to Door"))`)
	require.NoError(t, err)
	assert.Equal(t, domain.String("done"), v)
	assert.Equal(t, []string{"goToLocation Door"}, rec.calls)
}

func TestEvaluate_ArgumentsLeftToRight(t *testing.T) {
	env, reg := newEnv(t)
	rec := &recorder{}
	reg.Register("Log", rec)

	_, err := eval(t, env, `Log.pair(Log.first(), Log.second())`)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "pair  "}, rec.calls)
}

func TestEvaluate_Errors(t *testing.T) {
	env, reg := newEnv(t)
	reg.Register("Broken", &recorder{err: errors.New("boom")})

	cases := []struct {
		src string
		is  error
	}{
		{`Nope.call()`, domain.ErrUnknownReceiver},
		{`Memory.forget("x")`, domain.ErrUnknownOperation},
		{`Memory.getStateParam()`, domain.ErrArity},
		{`Memory.setStateParam("x")`, domain.ErrArity},
		{`Memory.getStateParam(Memory.getStateParam("unset"))`, domain.ErrInvalidArgument},
		{`"a" == Nope.call()`, domain.ErrUnknownReceiver},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			_, err := eval(t, env, tc.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.is)

			var evalErr *domain.EvaluationError
			assert.True(t, errors.As(err, &evalErr))
		})
	}

	_, err := eval(t, env, `Broken.run()`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "Broken.run()")
}

func TestEvaluate_NilRegistry(t *testing.T) {
	env := runtime.Env{Memory: memory.NewStore()}
	_, err := eval(t, env, `TTS.speak("hi")`)
	assert.ErrorIs(t, err, domain.ErrUnknownReceiver)
}
