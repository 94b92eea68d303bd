// Command admin performs moderation tasks against the WanTok database.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "WanTok moderation admin",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(os.Stderr)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "Directory containing app.env")

	rootCmd.AddCommand(
		buildUnbanCmd(&configPath),
		buildSuspendCmd(&configPath),
		buildReportsCmd(&configPath),
		buildResolveReportCmd(&configPath),
		buildSweepCmd(&configPath),
	)
	return rootCmd
}
