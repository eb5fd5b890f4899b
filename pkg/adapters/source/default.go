package source

import (
	_ "embed"

	"github.com/aretw0/reflex/pkg/adapters/memory"
)

// DefaultRules is the fallback rule set used when no other source is configured
// or the configured one cannot be read.
//
//go:embed default_rules.txt
var DefaultRules string

// Default returns a source yielding DefaultRules.
func Default() *memory.Source {
	return memory.NewSource(DefaultRules)
}
