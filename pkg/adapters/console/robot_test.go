package console_test

import (
	"context"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/reflex/pkg/adapters/console"
	"github.com/aretw0/reflex/pkg/registry"
	"github.com/aretw0/reflex/pkg/skills"
)

func TestRobot_PrintsCommands(t *testing.T) {
	ctx := context.Background()
	var out strings.Builder
	r := console.New(&out, console.WithProfile(termenv.Ascii))

	require.NoError(t, r.Speak(ctx, "hello"))
	require.NoError(t, r.TiltHead(ctx, 45))
	require.NoError(t, r.GoTo(ctx, "kitchen"))

	assert.Equal(t, "[speak] hello\n[head] tilt to 45 degrees\n[move] going to kitchen\n", out.String())
	assert.Equal(t, "kitchen", r.Position())
	assert.Equal(t, 45, r.Tilt())
}

func TestRobot_Locations(t *testing.T) {
	ctx := context.Background()
	var out strings.Builder
	r := console.New(&out, console.WithProfile(termenv.Ascii), console.WithLocations("home base", "lobby"))

	require.NoError(t, r.SaveLocation(ctx, "Kitchen"))
	require.NoError(t, r.SaveLocation(ctx, "kitchen"))
	require.NoError(t, r.DeleteLocation(ctx, "LOBBY"))

	locs, err := r.Locations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home base", "Kitchen"}, locs)
}

func TestRobot_DrivesSkills(t *testing.T) {
	ctx := context.Background()
	var out strings.Builder
	r := console.New(&out, console.WithProfile(termenv.Ascii))

	reg := registry.NewRegistry()
	require.NoError(t, skills.RegisterAll(reg, skills.Deps{Robot: r}, map[string]map[string]any{
		"TTS": {"no_wait": true},
	}))

	v, err := reg.Invoke(ctx, "Locations", "getLocationCount", nil)
	require.NoError(t, err)
	n, _ := v.AsNumber()
	assert.Equal(t, float64(1), n)

	_, err = reg.Invoke(ctx, "Move", "goHome", nil)
	require.NoError(t, err)
	assert.Equal(t, "home base", r.Position())
	assert.Contains(t, out.String(), "[move] going to home base")
}
