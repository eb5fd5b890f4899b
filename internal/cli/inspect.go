package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/reflex"
	"github.com/aretw0/reflex/internal/presentation/graph"
	"github.com/aretw0/reflex/internal/presentation/tui"
	"github.com/aretw0/reflex/pkg/domain"
)

// Output formats accepted by Inspect.
const (
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
	FormatText     = "text"
)

// Inspect prints the configured rules in the requested format.
// Markdown is rendered for the terminal unless plain is set.
func Inspect(ctx context.Context, opts RunOptions, format string, plain bool, w io.Writer) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	text, err := loadRules(ctx, cfg.Rules, discardLogger())
	if err != nil {
		return err
	}
	rules, parseErr := reflex.Validate(text)

	switch format {
	case FormatText:
		fmt.Fprintln(w, rules.String())
	case FormatMermaid:
		fmt.Fprint(w, graph.GenerateMermaid(rules, nil))
	case FormatMarkdown, "":
		md := rulesMarkdown(rules, parseErrors(parseErr))
		out, err := tui.NewRenderer(plain)(md)
		if err != nil {
			return err
		}
		fmt.Fprint(w, out)
	default:
		return fmt.Errorf("unknown format %q (supported: %s, %s, %s)", format, FormatMarkdown, FormatMermaid, FormatText)
	}
	return nil
}

// rulesMarkdown describes a rule set as a markdown document.
func rulesMarkdown(rules domain.RuleSet, skipped []*domain.ParseError) string {
	var sb strings.Builder
	sb.WriteString("# Rules\n\n")
	if len(rules) == 0 {
		sb.WriteString("_No rules._\n")
	}

	for i, r := range rules {
		mode := "foreground"
		if r.Speaks() {
			mode = "synchronous"
		}
		fmt.Fprintf(&sb, "## Rule %d (%s)\n\n", i, mode)
		fmt.Fprintf(&sb, "**When** `%s`\n\n", r.Condition)
		for _, a := range r.Actions {
			fmt.Fprintf(&sb, "1. `%s`\n", a)
		}
		sb.WriteString("\n")
	}

	if len(skipped) > 0 {
		sb.WriteString("## Skipped\n\n")
		for _, pe := range skipped {
			fmt.Fprintf(&sb, "- block %d: %v\n", pe.Block, pe.Err)
		}
	}
	return sb.String()
}
