package main

import (
	"os"

	"github.com/aretw0/reflex/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interaction loop",
	Long: `Starts the Reflex engine with a console robot. Typed lines are fed to the
rules as speech recognition results; "/wake" triggers the wakeup word.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd)
		opts.HTTPAddr, _ = cmd.Flags().GetString("http")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		opts.Language, _ = cmd.Flags().GetString("lang")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Run(ctx, opts, cli.IO{In: os.Stdin, Out: os.Stdout})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("http", "", "Serve the control API on this address (e.g. :8080)")
	runCmd.Flags().Bool("headless", false, "Do not read input from Stdin")
	runCmd.Flags().BoolP("quiet", "q", false, "Hide the banner and status messages")
	runCmd.Flags().String("lang", "", "Language reported for typed input (default en-US)")

	// 'run' is the default if no command is provided
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
