package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/reflex"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of reflex",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reflex version %s\n", strings.TrimSpace(reflex.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
