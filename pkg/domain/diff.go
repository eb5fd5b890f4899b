package domain

// RuleDiff lists the rules that appeared or disappeared across a reload,
// in canonical rule text.
type RuleDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// IsEmpty reports whether the two rule sets hold the same rules.
func (d RuleDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffRules compares two rule sets as multisets of canonical rules.
// Reordering alone is not a change; a rule present twice in newRules but once
// in oldRules counts as added once.
func DiffRules(oldRules, newRules RuleSet) RuleDiff {
	counts := make(map[string]int, len(oldRules))
	for _, r := range oldRules {
		counts[r.String()]++
	}

	var diff RuleDiff
	for _, r := range newRules {
		s := r.String()
		if counts[s] > 0 {
			counts[s]--
			continue
		}
		diff.Added = append(diff.Added, s)
	}

	// Walk oldRules again to keep removals in source order.
	for _, r := range oldRules {
		s := r.String()
		if counts[s] > 0 {
			counts[s]--
			diff.Removed = append(diff.Removed, s)
		}
	}
	return diff
}
