package tests

import (
	"context"
	"testing"

	"github.com/aretw0/reflex/internal/compiler"
	"github.com/aretw0/reflex/pkg/ports"
)

// RuleSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.RuleSource.
// want is the exact text the source is expected to yield.
func RuleSourceContractTest(t *testing.T, src ports.RuleSource, want string) {
	t.Helper()

	// 1. Load returns the configured text
	t.Run("Load_Text", func(t *testing.T) {
		got, err := src.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error loading rules: %v", err)
		}
		if got != want {
			t.Errorf("text mismatch. got %q, want %q", got, want)
		}
	})

	// 2. Load is repeatable
	t.Run("Load_Repeatable", func(t *testing.T) {
		first, err := src.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := src.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Errorf("consecutive loads differ: %q vs %q", first, second)
		}
	})

	// 3. The text parses
	t.Run("Load_Parses", func(t *testing.T) {
		got, _ := src.Load(context.Background())
		if _, err := compiler.NewParser().Parse(got); err != nil {
			t.Errorf("source yields unparsable rules: %v", err)
		}
	})
}
