package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/reflex/pkg/adapters/memory"
	"github.com/aretw0/reflex/pkg/ports/tests"
)

func TestSource_Contract(t *testing.T) {
	src := memory.NewSource(`["a" == "a" --> TTS.speak("hi")]`)
	tests.RuleSourceContractTest(t, src, `["a" == "a" --> TTS.speak("hi")]`)
}

func TestSource_WatchSignalsSet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := memory.NewSource("old")

	ch, err := src.Watch(ctx)
	require.NoError(t, err)

	src.Set("new")
	<-ch

	text, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", text)

	cancel()
	_, open := <-ch
	assert.False(t, open, "channel closes with the context")
}
