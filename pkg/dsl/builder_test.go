package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/reflex/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_RoundTrip(t *testing.T) {
	b := New()

	b.When(Param(domain.ParamInteractionState).Is(domain.InteractionActive)).
		Then(Speak(`say "hi"`), SetParam(domain.ParamInteractionState, "idle"))

	b.When(And(
		Param(domain.ParamInteractionState).Is(domain.InteractionAsrReceived),
		Match("*weather in *", Param(domain.ParamLastAsrResult).Expr()),
	)).Then(
		Param("city").Set(Extract("*weather in *", Param(domain.ParamLastAsrResult).Expr(), 1)),
		Call("System", "openApp", Lit("settings")),
	)

	b.When(Or(Lit("a"), Lit("b"), Eq(Param("x").Previous(), Lit("y")))).
		Then(Call("ASR", "listen"))

	text, err := b.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `TTS.speak("say \"hi\"")`)
	assert.Contains(t, text, `ExtractParam("*weather in *", Memory.getStateParam("lastAsrResult"), 1)`)

	src, err := b.Build()
	require.NoError(t, err)
	loaded, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, text, loaded)

	rules := b.Rules()
	require.Len(t, rules, 3)
	assert.True(t, rules[0].Speaks())
	assert.False(t, rules[1].Speaks())
}

func TestBuilder_Invalid(t *testing.T) {
	t.Run("No actions", func(t *testing.T) {
		b := New()
		b.When(Lit("x"))
		_, err := b.Text()
		assert.ErrorContains(t, err, "no actions")
	})

	t.Run("Missing condition", func(t *testing.T) {
		b := New()
		b.When(nil).Then(Speak("hi"))
		_, err := b.Build()
		assert.ErrorContains(t, err, "missing condition")
	})

	t.Run("Nested OR under AND", func(t *testing.T) {
		b := New()
		b.When(And(Or(Lit("a"), Lit("b")), Lit("c"))).Then(Speak("hi"))
		_, err := b.Text()
		assert.ErrorContains(t, err, "cannot be expressed")
	})
}

func TestRuleBuilder_BuildCopiesActions(t *testing.T) {
	b := New()
	rb := b.When(Lit("x")).Then(Speak("a"))
	built := rb.Build()
	rb.Then(Speak("b"))
	assert.Len(t, built.Actions, 1)
}
