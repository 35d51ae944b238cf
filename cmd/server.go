package cmd

import (
	"songvault/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the songvault HTTP server",
	Long:  `Start the HTTP server providing the song library API and, with the local storage driver, cover image serving.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
