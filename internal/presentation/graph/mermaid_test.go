package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/reflex/internal/compiler"
	"github.com/aretw0/reflex/internal/presentation/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	rules, err := compiler.NewParser().Parse(`[
		[Memory.getStateParam("interactionState") == "Active" --> TTS.speak("hi"); Memory.setStateParam("interactionState", "idle")]
		[ASR.isListening() == "false" --> ASR.listen()]
	]`)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
		absent   []string
	}{
		{
			name: "Shapes and order",
			contains: []string{
				"graph TD",
				`r0{"Memory.getStateParam('interactionState') == 'Active'"}`,
				`r0a0(["TTS.speak('hi')"])`,
				"r0 --> r0a0",
				"r0a0 --> r0a1",
				`r1a0[["ASR.listen()"]]`,
				"r1 --> r1a0",
			},
			absent: []string{"classDef"},
		},
		{
			name:    "Overlay",
			overlay: &graph.Overlay{Matched: []int{1, 1, 7}},
			contains: []string{
				"classDef matched",
				"class r1 matched;",
			},
			absent: []string{"class r7", "class r0 matched"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(rules, tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, got, unwanted)
			}
			assert.LessOrEqual(t, strings.Count(got, "class r1 matched;"), 1)
		})
	}
}
