package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/reflex/internal/dto"
)

func TestDecode(t *testing.T) {
	opts := dto.TTSOptions{PerChar: 100 * time.Millisecond, Base: 300 * time.Millisecond}

	err := dto.Decode(map[string]any{"per_char": "50ms", "no_wait": "true"}, &opts)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, opts.PerChar)
	assert.Equal(t, 300*time.Millisecond, opts.Base, "unset keys keep their defaults")
	assert.True(t, opts.NoWait)
}

func TestDecode_Nested(t *testing.T) {
	var opts dto.SystemOptions
	err := dto.Decode(map[string]any{"pages": map[string]any{"camera": "CAMERA"}}, &opts)
	require.NoError(t, err)
	assert.Equal(t, "CAMERA", opts.Pages["camera"])
}

func TestDecode_UnknownKey(t *testing.T) {
	var opts dto.MoveOptions
	err := dto.Decode(map[string]any{"hmoe": "base"}, &opts)
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	opts := dto.TiltOptions{Up: 45}
	require.NoError(t, dto.Decode(nil, &opts))
	assert.Equal(t, 45, opts.Up)
}
