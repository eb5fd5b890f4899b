package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/reflex"
	"github.com/aretw0/reflex/internal/config"
	"github.com/aretw0/reflex/pkg/domain"
)

// ErrInvalidRules is returned by Validate when at least one block was skipped.
var ErrInvalidRules = errors.New("rules contain invalid blocks")

// loadRules reads rule text from the source selected by cfg.
func loadRules(ctx context.Context, cfg config.RulesConfig, logger *slog.Logger) (string, error) {
	text, err := createSource(cfg, logger).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load rules: %w", err)
	}
	return text, nil
}

// Validate parses the configured rules and reports every skipped block to w.
func Validate(ctx context.Context, opts RunOptions, w io.Writer) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	text, err := loadRules(ctx, cfg.Rules, discardLogger())
	if err != nil {
		return err
	}
	return report(w, text)
}

func report(w io.Writer, text string) error {
	rules, err := reflex.Validate(text)
	problems := parseErrors(err)
	for _, pe := range problems {
		fmt.Fprintf(w, "  ✗ block %d: %v\n      %s\n", pe.Block, pe.Err, pe.Source)
	}
	if len(problems) > 0 {
		fmt.Fprintf(w, "%d rules valid, %d skipped\n", len(rules), len(problems))
		return ErrInvalidRules
	}
	fmt.Fprintf(w, "%d rules valid ✅\n", len(rules))
	return nil
}

// parseErrors flattens the joined parser error into its blocks.
func parseErrors(err error) []*domain.ParseError {
	if err == nil {
		return nil
	}
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	out := make([]*domain.ParseError, 0, len(errs))
	for _, e := range errs {
		var pe *domain.ParseError
		if errors.As(e, &pe) {
			out = append(out, pe)
		} else {
			out = append(out, &domain.ParseError{Block: -1, Err: e})
		}
	}
	return out
}
