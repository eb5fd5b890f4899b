package main

import (
	"fmt"
	"os"

	"github.com/aretw0/reflex/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reflex",
	Short: "Reflex is a rule-driven interaction engine for social robots",
	Long: `Reflex evaluates a hot-reloadable set of condition --> action rules against
a shared state store and drives robot skills (speech, listening, movement).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default reflex.yaml)")
	rootCmd.PersistentFlags().StringP("rules", "r", "", "Rules file (overrides rules.file)")
	rootCmd.PersistentFlags().String("url", "", "Rules URL (overrides rules.url)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// runOptions collects the persistent flags shared by every command.
func runOptions(cmd *cobra.Command) cli.RunOptions {
	configPath, _ := cmd.Flags().GetString("config")
	rulesFile, _ := cmd.Flags().GetString("rules")
	rulesURL, _ := cmd.Flags().GetString("url")
	logLevel, _ := cmd.Flags().GetString("log-level")
	return cli.RunOptions{
		ConfigPath: configPath,
		RulesFile:  rulesFile,
		RulesURL:   rulesURL,
		LogLevel:   logLevel,
	}
}
