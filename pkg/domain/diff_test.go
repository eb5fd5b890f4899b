package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rule(cond string, actions ...string) Rule {
	r := Rule{Condition: StringLiteral{Value: cond}}
	for _, a := range actions {
		r.Actions = append(r.Actions, FunctionCall{Receiver: "TTS", Method: "speak", Args: []Expression{StringLiteral{Value: a}}})
	}
	return r
}

func TestDiffRules(t *testing.T) {
	a, b, c := rule("a", "1"), rule("b", "2"), rule("c", "3")

	tests := []struct {
		name     string
		old, new RuleSet
		want     RuleDiff
	}{
		{
			name: "Initial load",
			new:  RuleSet{a, b},
			want: RuleDiff{Added: []string{a.String(), b.String()}},
		},
		{
			name: "Reorder is not a change",
			old:  RuleSet{a, b},
			new:  RuleSet{b, a},
			want: RuleDiff{},
		},
		{
			name: "Replace",
			old:  RuleSet{a, b},
			new:  RuleSet{a, c},
			want: RuleDiff{Added: []string{c.String()}, Removed: []string{b.String()}},
		},
		{
			name: "Duplicates",
			old:  RuleSet{a},
			new:  RuleSet{a, a},
			want: RuleDiff{Added: []string{a.String()}},
		},
		{
			name: "Clear",
			old:  RuleSet{a, b, a},
			want: RuleDiff{Removed: []string{a.String(), b.String(), a.String()}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffRules(tt.old, tt.new)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want.Added)+len(tt.want.Removed) == 0, got.IsEmpty())
		})
	}
}
