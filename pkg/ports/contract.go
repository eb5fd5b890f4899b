package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/reflex/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMemoryContract runs a suite of tests to verify that a Memory implementation
// adheres to the defined interface contract. The memory is reset between subtests.
func RunMemoryContract(t *testing.T, mem Memory) {
	ctx := context.Background()

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, mem.Reset(ctx), "Reset should not return error")
	}

	t.Run("Set and Get", func(t *testing.T) {
		reset(t)

		require.NoError(t, mem.SetStateParam(ctx, "mood", domain.String("happy")))
		require.NoError(t, mem.SetStateParam(ctx, "count", domain.Number(3)))
		require.NoError(t, mem.SetStateParam(ctx, "flag", domain.Bool(true)))
		require.NoError(t, mem.SetStateParam(ctx, "places", domain.Strings([]string{"kitchen", "door"})))

		v, ok, err := mem.GetStateParam(ctx, "mood")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.String("happy"), v)

		v, _, _ = mem.GetStateParam(ctx, "count")
		assert.Equal(t, domain.Number(3), v)
		v, _, _ = mem.GetStateParam(ctx, "flag")
		assert.Equal(t, domain.Bool(true), v)
		v, _, _ = mem.GetStateParam(ctx, "places")
		assert.True(t, v.Equal(domain.Strings([]string{"kitchen", "door"})))
	})

	t.Run("Names are case sensitive", func(t *testing.T) {
		reset(t)

		require.NoError(t, mem.SetStateParam(ctx, "Mood", domain.String("a")))
		_, ok, err := mem.GetStateParam(ctx, "mood")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Absent Name", func(t *testing.T) {
		reset(t)

		v, ok, err := mem.GetStateParam(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, v.IsNothing())

		entries, ok, err := mem.GetStateParamHistory(ctx, "missing", domain.Window{})
		require.NoError(t, err)
		assert.False(t, ok, "history of an unset name must be absent")
		assert.Nil(t, entries)

		_, ok, err = mem.GetPreviousStateParam(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("History Appends", func(t *testing.T) {
		reset(t)

		for _, s := range []string{"a", "b", "a"} {
			require.NoError(t, mem.SetStateParam(ctx, "s", domain.String(s)))
		}

		entries, ok, err := mem.GetStateParamHistory(ctx, "s", domain.Window{})
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, entries, 3)
		assert.Equal(t, domain.String("a"), entries[0].Value)
		assert.Equal(t, domain.String("b"), entries[1].Value)
		assert.Equal(t, domain.String("a"), entries[2].Value)
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].Timestamp.Before(entries[i-1].Timestamp), "history must be chronological")
		}
	})

	t.Run("Previous Value", func(t *testing.T) {
		reset(t)

		require.NoError(t, mem.SetStateParam(ctx, "s", domain.String("first")))
		_, ok, err := mem.GetPreviousStateParam(ctx, "s")
		require.NoError(t, err)
		assert.False(t, ok, "one entry has no previous value")

		require.NoError(t, mem.SetStateParam(ctx, "s", domain.String("second")))
		v, ok, err := mem.GetPreviousStateParam(ctx, "s")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.String("first"), v)
	})

	t.Run("History Window", func(t *testing.T) {
		reset(t)

		require.NoError(t, mem.SetStateParam(ctx, "w", domain.String("old")))
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, mem.SetStateParam(ctx, "w", domain.String("new")))

		all, _, err := mem.GetStateParamHistory(ctx, "w", domain.Window{})
		require.NoError(t, err)
		require.Len(t, all, 2)

		start := all[1].Timestamp
		recent, ok, err := mem.GetStateParamHistory(ctx, "w", domain.Window{Start: &start})
		require.NoError(t, err)
		assert.True(t, ok)
		require.Len(t, recent, 1)
		assert.Equal(t, domain.String("new"), recent[0].Value)

		end := all[0].Timestamp
		older, _, err := mem.GetStateParamHistory(ctx, "w", domain.Window{End: &end})
		require.NoError(t, err)
		require.Len(t, older, 1)
		assert.Equal(t, domain.String("old"), older[0].Value)

		byName, err := mem.GetStateHistory(ctx, domain.Window{Start: &start})
		require.NoError(t, err)
		assert.Len(t, byName["w"], 1)
	})

	t.Run("Snapshots", func(t *testing.T) {
		reset(t)

		require.NoError(t, mem.SetStateParam(ctx, "a", domain.String("1")))
		require.NoError(t, mem.SetStateParam(ctx, "b", domain.String("2")))
		require.NoError(t, mem.SetStateParam(ctx, "b", domain.String("3")))

		state, err := mem.GetState(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]domain.Value{"a": domain.String("1"), "b": domain.String("3")}, state)

		history, err := mem.GetStateHistory(ctx, domain.Window{})
		require.NoError(t, err)
		assert.Len(t, history["a"], 1)
		assert.Len(t, history["b"], 2)
	})

	t.Run("Clear History", func(t *testing.T) {
		reset(t)

		require.NoError(t, mem.SetStateParam(ctx, "k", domain.String("v1")))
		require.NoError(t, mem.SetStateParam(ctx, "k", domain.String("v2")))
		require.NoError(t, mem.ClearHistory(ctx))

		v, ok, err := mem.GetStateParam(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok, "current values survive ClearHistory")
		assert.Equal(t, domain.String("v2"), v)

		_, ok, err = mem.GetStateParamHistory(ctx, "k", domain.Window{})
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = mem.GetPreviousStateParam(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Reset", func(t *testing.T) {
		reset(t)

		require.NoError(t, mem.SetStateParam(ctx, "k", domain.String("v")))
		require.NoError(t, mem.Reset(ctx))

		state, err := mem.GetState(ctx)
		require.NoError(t, err)
		assert.Empty(t, state)

		history, err := mem.GetStateHistory(ctx, domain.Window{})
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}
