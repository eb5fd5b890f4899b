package domain

import "strings"

// Rule pairs a condition with the ordered actions fired when it holds.
type Rule struct {
	Condition Expression
	Actions   []Expression
}

// Speaks reports whether any action is a call to TTS.speak.
// Such rules run on the loop goroutine instead of the foreground executor.
func (r Rule) Speaks() bool {
	for _, a := range r.Actions {
		if IsCall(a, ReceiverTTS, MethodSpeak) {
			return true
		}
	}
	return false
}

// String renders the rule as a rule-language block.
func (r Rule) String() string {
	actions := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = a.String()
	}
	return "[" + r.Condition.String() + " --> " + strings.Join(actions, "; ") + "]"
}

// RuleSet is the ordered collection of rules currently governing behavior.
// It is never mutated in place; reloads replace it wholesale.
type RuleSet []Rule

// String renders the whole set so that parsing the output yields an equal RuleSet.
func (rs RuleSet) String() string {
	if len(rs) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, r := range rs {
		b.WriteString("  ")
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	b.WriteString("]")
	return b.String()
}
