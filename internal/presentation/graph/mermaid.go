package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/reflex/pkg/domain"
)

// Overlay contains runtime data to visualize on the graph.
type Overlay struct {
	Matched []int // indexes of rules that matched on the last tick
}

// GenerateMermaid produces a Mermaid flowchart of a rule set.
// Each rule becomes a condition rhombus followed by its actions in order:
// - Condition: {Rhombus}
// - Action: [[Subroutine]]
// - Action of a speaking rule (runs on the loop): ([Stadium])
// Matched rules from the overlay are highlighted.
func GenerateMermaid(rules domain.RuleSet, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, rule := range rules {
		condID := fmt.Sprintf("r%d", i)
		sb.WriteString(fmt.Sprintf("    %s{\"%s\"}\n", condID, label(rule.Condition.String())))

		opener, closer := "[[", "]]"
		if rule.Speaks() {
			opener, closer = "([", "])"
		}

		prev := condID
		for j, action := range rule.Actions {
			actionID := fmt.Sprintf("%sa%d", condID, j)
			sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", actionID, opener, label(action.String()), closer))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, actionID))
			prev = actionID
		}
	}

	if overlay != nil && len(overlay.Matched) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on any theme
		sb.WriteString("    classDef matched fill:#fff3e0,stroke:#e65100,stroke-width:3px,color:#000;\n")

		seen := make(map[int]bool)
		for _, i := range overlay.Matched {
			if i < 0 || i >= len(rules) || seen[i] {
				continue
			}
			seen[i] = true
			sb.WriteString(fmt.Sprintf("    class r%d matched;\n", i))
		}
	}

	return sb.String()
}

// label escapes text for use inside a quoted Mermaid label.
func label(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
