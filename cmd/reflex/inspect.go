package main

import (
	"os"

	"github.com/aretw0/reflex/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [rules-file]",
	Short: "Show the rules as the engine sees them",
	Long: `Renders the parsed rules as markdown, plain canonical text, or a Mermaid
flowchart that can be pasted into documentation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd)
		if len(args) > 0 {
			opts.RulesFile = args[0]
		}
		format, _ := cmd.Flags().GetString("format")
		plain := !term.IsTerminal(int(os.Stdout.Fd()))
		return cli.Inspect(cmd.Context(), opts, format, plain, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", cli.FormatMarkdown, "Output format: markdown, text, mermaid")
}
