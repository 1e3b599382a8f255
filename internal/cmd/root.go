// Package cmd implements the CLI (Command Line Interface) of the application.
//
// serve - The main application service entry point
// migrate - Apply or revert the database schema
// server add
// server delete
// server list
// players directory
// players op|deop|whitelist|unwhitelist|ban|unban|ban-ip|unban-ip
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string //nolint:gochecknoglobals

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if errExecute := rootCmd().Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	if BuildVersion == "" {
		BuildVersion = "master"
	}

	root := &cobra.Command{
		Use:           "simpleservers",
		Short:         "Game server player list manager",
		Version:       BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is simpleservers.yml in $HOME or the working directory)")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(serverCmd())
	root.AddCommand(playersCmd())

	return root
}
