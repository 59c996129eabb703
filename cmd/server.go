package cmd

import (
	"github.com/spf13/cobra"

	"beatdrop/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the beatdrop HTTP server",
	Long:  "Serves the JSON API and ranged audio streaming for the beat-sharing site.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
