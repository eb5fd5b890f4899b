package main

import (
	"os"

	"github.com/aretw0/reflex/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [rules-file]",
	Short: "Check rules for syntax errors",
	Long:  `Parses the configured rules and lists every block that would be skipped.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd)
		if len(args) > 0 {
			opts.RulesFile = args[0]
		}
		return cli.Validate(cmd.Context(), opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
