package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beatdrop/server"
)

var rootCmd = &cobra.Command{
	Use:   "beatdrop",
	Short: "beatdrop shares per-artist beat folders over password-gated pages.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
